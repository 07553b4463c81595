// Package auth maps a bearer credential to the shop/branch identity an
// event stream is scoped to.
//
// It is deliberately a stub: tokens are HMAC-signed JWTs carrying
// shop_id and branch_id claims, and the only policy enforced here is
// identity extraction plus the structural guarantee that neither
// identifier can collide with the room key separator. Authorization
// policy beyond that lives outside this service.
package auth
