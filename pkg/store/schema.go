package store

// Money columns are TEXT in SQLite so no precision is lost; PostgreSQL gets
// NUMERIC. Dates are stored as YYYY-MM-DD.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS provinces (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS education_institutions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	city TEXT NOT NULL DEFAULT '',
	province_id INTEGER NOT NULL REFERENCES provinces(id)
);
CREATE TABLE IF NOT EXISTS financial_institutions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	code TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS study_info (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	program_of_study TEXT NOT NULL,
	program_code TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS loans (
	id TEXT PRIMARY KEY,
	enrollment_type TEXT NOT NULL DEFAULT '',
	principal TEXT NOT NULL,
	balance TEXT NOT NULL,
	percentage_paid TEXT NOT NULL DEFAULT '0%',
	disbursement_date DATE NOT NULL,
	payoff_date DATE,
	study_info_id INTEGER REFERENCES study_info(id),
	education_institution_id INTEGER REFERENCES education_institutions(id),
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS communications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	phone_number TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	preference TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS students (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	home_address TEXT NOT NULL DEFAULT '',
	communication_id INTEGER NOT NULL REFERENCES communications(id),
	loan_id TEXT REFERENCES loans(id)
);
CREATE TABLE IF NOT EXISTS payments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	loan_id TEXT NOT NULL REFERENCES loans(id),
	amount TEXT NOT NULL,
	paid_on DATE NOT NULL,
	financial_institution_id INTEGER NOT NULL REFERENCES financial_institutions(id)
);
CREATE INDEX IF NOT EXISTS idx_payments_loan_id ON payments(loan_id);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS provinces (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS education_institutions (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	city TEXT NOT NULL DEFAULT '',
	province_id BIGINT NOT NULL REFERENCES provinces(id)
);
CREATE TABLE IF NOT EXISTS financial_institutions (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	code TEXT NOT NULL,
	type TEXT NOT NULL DEFAULT '',
	active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE TABLE IF NOT EXISTS study_info (
	id BIGSERIAL PRIMARY KEY,
	program_of_study TEXT NOT NULL,
	program_code TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS loans (
	id TEXT PRIMARY KEY,
	enrollment_type TEXT NOT NULL DEFAULT '',
	principal NUMERIC(14,2) NOT NULL,
	balance NUMERIC(14,2) NOT NULL CHECK (balance >= 0 AND balance <= principal),
	percentage_paid TEXT NOT NULL DEFAULT '0%',
	disbursement_date DATE NOT NULL,
	payoff_date DATE,
	study_info_id BIGINT REFERENCES study_info(id),
	education_institution_id BIGINT REFERENCES education_institutions(id),
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS communications (
	id BIGSERIAL PRIMARY KEY,
	phone_number TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	preference TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS students (
	id TEXT PRIMARY KEY,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	home_address TEXT NOT NULL DEFAULT '',
	communication_id BIGINT NOT NULL REFERENCES communications(id),
	loan_id TEXT REFERENCES loans(id)
);
CREATE TABLE IF NOT EXISTS payments (
	id BIGSERIAL PRIMARY KEY,
	loan_id TEXT NOT NULL REFERENCES loans(id),
	amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
	paid_on DATE NOT NULL,
	financial_institution_id BIGINT NOT NULL REFERENCES financial_institutions(id)
);
CREATE INDEX IF NOT EXISTS idx_payments_loan_id ON payments(loan_id);
`
