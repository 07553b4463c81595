package broadcast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RoomKeySeparator joins the shop and branch identifiers into a room
// key. The auth layer guarantees neither identifier contains it, so a
// key is always unambiguously reconstructible from its two parts.
const RoomKeySeparator = ":"

// BuildRoomKey derives the room key for a shop/branch pair.
func BuildRoomKey(shopID, branchID string) string {
	return shopID + RoomKeySeparator + branchID
}

// SplitRoomKey is the inverse of BuildRoomKey. The second return value
// is false if the key does not contain the separator.
func SplitRoomKey(roomKey string) (shopID, branchID string, ok bool) {
	shopID, branchID, ok = strings.Cut(roomKey, RoomKeySeparator)
	return shopID, branchID, ok
}

// EncodeFrame serializes data to single-line JSON and wraps it in one
// complete SSE frame:
//
//	event: <name>\n
//	data: <json>\n
//	\n
//
// json.Marshal never emits raw newlines, so the data field always fits
// on one line.
func EncodeFrame(event string, data any) ([]byte, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return encodeRawFrame(event, body), nil
}

// encodeRawFrame frames pre-serialized JSON bytes.
func encodeRawFrame(event string, body []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(len(event) + len(body) + 16)
	fmt.Fprintf(&buf, "event: %s\n", event)
	fmt.Fprintf(&buf, "data: %s\n\n", body)
	return buf.Bytes()
}

// KeepAliveFrame returns an SSE comment used to hold idle connections
// open through proxies. Comments are ignored by EventSource clients.
func KeepAliveFrame(unix int64) []byte {
	return fmt.Appendf(nil, ": keepalive %d\n\n", unix)
}
