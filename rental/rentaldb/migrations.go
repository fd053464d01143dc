// Copyright (C) 2025 CineRent Labs, Inc.
// See LICENSE for copying information.

package rentaldb

import (
	"context"

	"cinerent.io/cinerent/private/migrate"
)

// MigrateToLatest applies all pending schema migrations.
func (db *DB) MigrateToLatest(ctx context.Context) error {
	migration := db.Migration()
	return migration.Run(ctx, db.log.Named("migrate"), db.conn)
}

// Migration returns the complete schema migration for the rental database.
func (db *DB) Migration() *migrate.Migration {
	return &migrate.Migration{
		Table: "versions",
		Steps: []*migrate.Step{
			{
				Description: "initial schema",
				Version:     0,
				Action: migrate.SQL{
					`CREATE TYPE equipment_status AS ENUM
						('AVAILABLE', 'RENTED', 'MAINTENANCE', 'BROKEN', 'RETIRED')`,
					`CREATE TYPE client_status AS ENUM
						('ACTIVE', 'BLOCKED', 'ARCHIVED')`,
					`CREATE TYPE project_status AS ENUM
						('DRAFT', 'ACTIVE', 'COMPLETED', 'CANCELLED')`,
					`CREATE TYPE project_payment_status AS ENUM
						('UNPAID', 'PARTIALLY_PAID', 'PAID')`,
					`CREATE TYPE booking_status AS ENUM
						('PENDING', 'CONFIRMED', 'ACTIVE', 'COMPLETED', 'CANCELLED', 'OVERDUE')`,
					`CREATE TYPE booking_payment_status AS ENUM
						('PENDING', 'PARTIAL', 'PAID', 'REFUNDED', 'OVERDUE')`,
					`CREATE TYPE document_type AS ENUM
						('CONTRACT', 'INVOICE', 'RECEIPT', 'PASSPORT', 'DAMAGE_REPORT', 'INSURANCE', 'OTHER')`,
					`CREATE TYPE document_status AS ENUM
						('DRAFT', 'PENDING', 'UNDER_REVIEW', 'APPROVED', 'REJECTED', 'EXPIRED', 'CANCELLED')`,

					`CREATE TABLE users (
						id bigserial PRIMARY KEY,
						email text NOT NULL UNIQUE,
						full_name text NOT NULL,
						created_at timestamptz NOT NULL DEFAULT now()
					)`,

					`CREATE TABLE categories (
						id bigserial PRIMARY KEY,
						name text NOT NULL,
						description text,
						parent_id bigint REFERENCES categories (id) ON DELETE RESTRICT,
						show_in_print_overview boolean NOT NULL DEFAULT false,
						created_at timestamptz NOT NULL DEFAULT now(),
						updated_at timestamptz NOT NULL DEFAULT now(),
						deleted_at timestamptz
					)`,
					`CREATE UNIQUE INDEX categories_live_name_index
						ON categories (name) WHERE deleted_at IS NULL`,
					`CREATE INDEX categories_parent_index ON categories (parent_id)`,

					`CREATE TABLE equipment (
						id bigserial PRIMARY KEY,
						name text NOT NULL,
						description text,
						serial_number text,
						barcode text NOT NULL,
						category_id bigint NOT NULL REFERENCES categories (id) ON DELETE RESTRICT,
						status equipment_status NOT NULL DEFAULT 'AVAILABLE',
						replacement_cost numeric(10, 2) NOT NULL DEFAULT 0
							CHECK (replacement_cost >= 0 AND replacement_cost < 100000000),
						notes text,
						created_at timestamptz NOT NULL DEFAULT now(),
						updated_at timestamptz NOT NULL DEFAULT now(),
						deleted_at timestamptz
					)`,
					`CREATE UNIQUE INDEX equipment_live_barcode_index
						ON equipment (barcode) WHERE deleted_at IS NULL`,
					`CREATE INDEX equipment_category_index ON equipment (category_id)`,
					`CREATE INDEX equipment_status_index ON equipment (status)`,

					`CREATE TABLE clients (
						id bigserial PRIMARY KEY,
						name text NOT NULL,
						email text,
						phone text,
						company text,
						status client_status NOT NULL DEFAULT 'ACTIVE',
						notes text,
						created_at timestamptz NOT NULL DEFAULT now(),
						updated_at timestamptz NOT NULL DEFAULT now(),
						deleted_at timestamptz
					)`,

					`CREATE TABLE projects (
						id bigserial PRIMARY KEY,
						name text NOT NULL,
						client_id bigint NOT NULL REFERENCES clients (id) ON DELETE RESTRICT,
						start_date timestamptz NOT NULL,
						end_date timestamptz NOT NULL,
						status project_status NOT NULL DEFAULT 'DRAFT',
						payment_status project_payment_status NOT NULL DEFAULT 'UNPAID',
						description text,
						notes text,
						created_at timestamptz NOT NULL DEFAULT now(),
						updated_at timestamptz NOT NULL DEFAULT now(),
						deleted_at timestamptz,
						CHECK (end_date > start_date)
					)`,
					`CREATE INDEX projects_client_index ON projects (client_id)`,

					`CREATE TABLE bookings (
						id bigserial PRIMARY KEY,
						client_id bigint NOT NULL REFERENCES clients (id) ON DELETE RESTRICT,
						equipment_id bigint NOT NULL REFERENCES equipment (id) ON DELETE RESTRICT,
						project_id bigint REFERENCES projects (id) ON DELETE SET NULL,
						start_date timestamptz NOT NULL,
						end_date timestamptz NOT NULL,
						quantity integer NOT NULL DEFAULT 1 CHECK (quantity >= 1),
						total_amount numeric(10, 2) NOT NULL DEFAULT 0,
						deposit_amount numeric(10, 2) NOT NULL DEFAULT 0,
						booking_status booking_status NOT NULL DEFAULT 'ACTIVE',
						payment_status booking_payment_status NOT NULL DEFAULT 'PENDING',
						notes text,
						created_at timestamptz NOT NULL DEFAULT now(),
						updated_at timestamptz NOT NULL DEFAULT now(),
						deleted_at timestamptz,
						CHECK (end_date > start_date)
					)`,
					`CREATE INDEX bookings_equipment_window_index
						ON bookings (equipment_id, start_date, end_date)`,
					`CREATE INDEX bookings_status_index ON bookings (booking_status)`,
					`CREATE INDEX bookings_client_index ON bookings (client_id)`,
					`CREATE INDEX bookings_project_index ON bookings (project_id)`,

					`CREATE TABLE documents (
						id bigserial PRIMARY KEY,
						client_id bigint NOT NULL REFERENCES clients (id) ON DELETE RESTRICT,
						booking_id bigint REFERENCES bookings (id) ON DELETE SET NULL,
						type document_type NOT NULL,
						title text NOT NULL,
						file_path text NOT NULL,
						file_name text NOT NULL,
						file_size bigint NOT NULL DEFAULT 0 CHECK (file_size >= 0),
						mime_type text NOT NULL,
						status document_status NOT NULL DEFAULT 'DRAFT',
						created_at timestamptz NOT NULL DEFAULT now(),
						updated_at timestamptz NOT NULL DEFAULT now(),
						deleted_at timestamptz
					)`,
					`CREATE INDEX documents_client_index ON documents (client_id)`,
					`CREATE INDEX documents_booking_index ON documents (booking_id)`,

					`CREATE TABLE scan_sessions (
						id bigserial PRIMARY KEY,
						user_id bigint REFERENCES users (id) ON DELETE SET NULL,
						name text NOT NULL,
						items jsonb NOT NULL DEFAULT '[]',
						expires_at timestamptz NOT NULL,
						created_at timestamptz NOT NULL DEFAULT now(),
						updated_at timestamptz NOT NULL DEFAULT now()
					)`,
					`CREATE INDEX scan_sessions_user_index ON scan_sessions (user_id)`,
					`CREATE INDEX scan_sessions_expires_index ON scan_sessions (expires_at)`,

					`CREATE TABLE barcode_sequences (
						id integer PRIMARY KEY CHECK (id = 1),
						last_number bigint NOT NULL DEFAULT 0
					)`,
					`INSERT INTO barcode_sequences (id, last_number) VALUES (1, 0)`,

					`CREATE TABLE subcategory_prefixes (
						id bigserial PRIMARY KEY,
						category_id bigint NOT NULL REFERENCES categories (id) ON DELETE CASCADE,
						prefix text NOT NULL UNIQUE
					)`,
				},
			},
			{
				Description: "seed development user",
				Version:     1,
				Action: migrate.SQL{
					`INSERT INTO users (email, full_name)
						VALUES ('dev@cinerent.local', 'Development User')
						ON CONFLICT (email) DO NOTHING`,
				},
			},
		},
	}
}
