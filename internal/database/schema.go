package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Tables in creation order.  Every statement is idempotent so Migrate can
// run on each start.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		phone TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'USER',
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash TEXT NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS spots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		spot_label TEXT NOT NULL UNIQUE,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'available',
		location TEXT NOT NULL DEFAULT 'Main Parking',
		last_updated DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reference TEXT NOT NULL UNIQUE,
		spot_label TEXT NOT NULL REFERENCES spots(spot_label),
		user_name TEXT NOT NULL,
		user_phone TEXT NOT NULL,
		user_email TEXT NOT NULL DEFAULT '',
		car_type TEXT NOT NULL,
		arrival_time DATETIME NOT NULL,
		duration INTEGER NOT NULL,
		booking_time DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		grace_period_end DATETIME NULL,
		arrived_at DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_phone ON bookings(user_phone)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)`,
	`CREATE TABLE IF NOT EXISTS parking_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		spot_label TEXT NOT NULL,
		action TEXT NOT NULL,
		user_name TEXT NOT NULL DEFAULT '',
		timestamp DATETIME NOT NULL,
		details TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_name TEXT NOT NULL,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		timestamp DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS waitlist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_name TEXT NOT NULL,
		user_phone TEXT NOT NULL,
		user_email TEXT NOT NULL DEFAULT '',
		car_type TEXT NOT NULL,
		requested_time DATETIME NOT NULL,
		status TEXT NOT NULL DEFAULT 'waiting'
	)`,
	`CREATE TABLE IF NOT EXISTS occupancy_stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		total_spots INTEGER NOT NULL,
		occupied_spots INTEGER NOT NULL,
		available_spots INTEGER NOT NULL,
		reserved_spots INTEGER NOT NULL
	)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		name VARCHAR(120) NOT NULL,
		phone VARCHAR(20) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'USER',
		created_at DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL UNIQUE,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS spots (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		spot_label VARCHAR(16) NOT NULL UNIQUE,
		x INT NOT NULL,
		y INT NOT NULL,
		width INT NOT NULL,
		height INT NOT NULL,
		status ENUM('available','occupied','reserved') NOT NULL DEFAULT 'available',
		location VARCHAR(120) NOT NULL DEFAULT 'Main Parking',
		last_updated DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		reference CHAR(36) NOT NULL UNIQUE,
		spot_label VARCHAR(16) NOT NULL,
		user_name VARCHAR(120) NOT NULL,
		user_phone VARCHAR(20) NOT NULL,
		user_email VARCHAR(255) NOT NULL DEFAULT '',
		car_type VARCHAR(40) NOT NULL,
		arrival_time DATETIME NOT NULL,
		duration INT NOT NULL,
		booking_time DATETIME NOT NULL,
		status ENUM('active','cancelled','expired','completed') NOT NULL DEFAULT 'active',
		grace_period_end DATETIME NULL,
		arrived_at DATETIME NULL,
		KEY idx_bookings_phone (user_phone),
		KEY idx_bookings_status (status),
		CONSTRAINT fk_booking_spot FOREIGN KEY (spot_label) REFERENCES spots(spot_label)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS parking_logs (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		spot_label VARCHAR(16) NOT NULL,
		action VARCHAR(32) NOT NULL,
		user_name VARCHAR(120) NOT NULL DEFAULT '',
		timestamp DATETIME NOT NULL,
		details VARCHAR(255) NOT NULL DEFAULT ''
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS feedback (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_name VARCHAR(120) NOT NULL,
		rating TINYINT NOT NULL,
		comment TEXT NOT NULL,
		timestamp DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS waitlist (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_name VARCHAR(120) NOT NULL,
		user_phone VARCHAR(20) NOT NULL,
		user_email VARCHAR(255) NOT NULL DEFAULT '',
		car_type VARCHAR(40) NOT NULL,
		requested_time DATETIME NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'waiting'
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS occupancy_stats (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		total_spots INT NOT NULL,
		occupied_spots INT NOT NULL,
		available_spots INT NOT NULL,
		reserved_spots INT NOT NULL,
		KEY idx_stats_ts (timestamp)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables for the given driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	stmts := mysqlSchema
	if driver == "sqlite3" {
		stmts = sqliteSchema
	}
	for i, q := range stmts {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
