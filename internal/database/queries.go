package database

// Catalog queries
const (
	ListActiveRestaurantsSQL = `
		SELECT id, name FROM restaurants
		WHERE active
		ORDER BY id ASC`

	GetMenuByNameSQL = `
		SELECT menu FROM restaurants
		WHERE name = $1 AND active`

	InsertRestaurantSQL = `
		INSERT INTO restaurants (name, menu)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`
)

// Ledger queries
const (
	// The restaurant id is resolved from the session's selected
	// restaurant name inside the insert; one append, no surrounding
	// transaction.
	InsertOrderRecordSQL = `
		INSERT INTO order_records (user_id, restaurant_id, item, quantity)
		VALUES ($1, (SELECT id FROM restaurants WHERE name = $2), $3, $4)`

	// Rows come back in insertion order so that first-seen ranking is
	// deterministic.
	QueryRecordsByUserSQL = `
		SELECT user_id, item, quantity, created_at
		FROM order_records
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC`

	QueryAllRecordsSQL = `
		SELECT user_id, item, quantity, created_at
		FROM order_records
		ORDER BY created_at ASC, id ASC`

	QueryRecentRecordsSQL = `
		SELECT user_id, item, quantity, created_at
		FROM order_records
		WHERE created_at >= NOW() - ($1 * INTERVAL '1 day')
		ORDER BY created_at ASC, id ASC`
)
