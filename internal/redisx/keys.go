package redisx

import "time"

const (
	// Cache status order: order_status:{order_number} -> {generation}|{user_id}|{status}
	KeyOrderStatus = "order_status:%s"

	// Generation counter bumped on every status change: order_status_gen:{order_number}
	KeyOrderStatusGen = "order_status_gen:%s"

	// Code issue cooldown: code_cooldown:{purpose}:{email}
	KeyCodeCooldown = "code_cooldown:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLStatusGen   = time.Hour
)
