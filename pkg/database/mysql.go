package database

import (
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/jdcera4/pruebaBot/environments"
	"github.com/jdcera4/pruebaBot/pkg/logger"
)

func NewMySQLDB(cfg environments.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Connected to MySQL database")
	return db, nil
}

func RunMigrations(db *sqlx.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS campaigns (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			message TEXT NOT NULL,
			media_path VARCHAR(512),
			media_name VARCHAR(255),
			recipients JSON NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'created',
			scheduled_for DATETIME NULL,
			started_at DATETIME NULL,
			completed_at DATETIME NULL,
			progress_total INT NOT NULL DEFAULT 0,
			progress_sent INT NOT NULL DEFAULT 0,
			progress_failed INT NOT NULL DEFAULT 0,
			progress_pending INT NOT NULL DEFAULT 0,
			results JSON NOT NULL,
			error TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_campaigns_status (status),
			INDEX idx_campaigns_scheduled_for (scheduled_for),
			INDEX idx_campaigns_created_at (created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS contacts (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(30) NOT NULL,
			email VARCHAR(255),
			source VARCHAR(20) NOT NULL DEFAULT 'manual',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_contacts_phone (phone),
			INDEX idx_contacts_created_at (created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS flows (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			steps JSON NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_flows_is_active (is_active)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS messages (
			id VARCHAR(36) PRIMARY KEY,
			address VARCHAR(64) NOT NULL,
			name VARCHAR(255),
			body TEXT NOT NULL,
			direction VARCHAR(10) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			transport_id VARCHAR(100),
			error TEXT,
			sent_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_messages_address (address),
			INDEX idx_messages_status (status),
			INDEX idx_messages_created_at (created_at)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,

		`CREATE TABLE IF NOT EXISTS settings (
			id TINYINT PRIMARY KEY,
			data JSON NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
	}

	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	logger.Infof("Database migrations completed")

	return nil
}

func SeedTestData(db *sqlx.DB) error {
	var count int

	err := db.Get(&count, "SELECT COUNT(*) FROM contacts")
	if err != nil {
		return err
	}

	if count > 0 {
		logger.Infof("Database already has %d contacts, skipping seed", count)
		return nil
	}

	testContacts := []struct {
		id    string
		name  string
		phone string
	}{
		{"3f0c7f1a-9a1e-4f6a-8c1d-1a2b3c4d5e01", "Ana Torres", "573001234501"},
		{"3f0c7f1a-9a1e-4f6a-8c1d-1a2b3c4d5e02", "Carlos Mejia", "573001234502"},
		{"3f0c7f1a-9a1e-4f6a-8c1d-1a2b3c4d5e03", "Diana Ruiz", "573001234503"},
		{"3f0c7f1a-9a1e-4f6a-8c1d-1a2b3c4d5e04", "Eduardo Pardo", "573001234504"},
		{"3f0c7f1a-9a1e-4f6a-8c1d-1a2b3c4d5e05", "Fernanda Gil", "573001234505"},
		{"3f0c7f1a-9a1e-4f6a-8c1d-1a2b3c4d5e06", "Gustavo Lara", "573001234506"},
		{"3f0c7f1a-9a1e-4f6a-8c1d-1a2b3c4d5e07", "Helena Osorio", "573001234507"},
		{"3f0c7f1a-9a1e-4f6a-8c1d-1a2b3c4d5e08", "Ivan Castro", "573001234508"},
		{"3f0c7f1a-9a1e-4f6a-8c1d-1a2b3c4d5e09", "Julia Navas", "573001234509"},
		{"3f0c7f1a-9a1e-4f6a-8c1d-1a2b3c4d5e10", "Kevin Rios", "573001234510"},
	}

	for _, contact := range testContacts {
		_, err := db.Exec(
			"INSERT INTO contacts (id, name, phone, source) VALUES (?, ?, ?, 'manual')",
			contact.id, contact.name, contact.phone,
		)
		if err != nil {
			return fmt.Errorf("failed to seed test data: %w", err)
		}
	}

	logger.Infof("Seeded %d test contacts", len(testContacts))

	return seedSampleFlow(db)
}

func seedSampleFlow(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM flows"); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	steps := `[
		{"id": "welcome", "message": "Hola! En que podemos ayudarte?", "isFinal": false, "options": [
			{"id": "1", "label": "Ver precios", "nextStepId": "prices", "responseMessage": "Estos son nuestros planes:"},
			{"id": "2", "label": "Hablar con un asesor", "nextStepId": null, "responseMessage": "Un asesor te contactara pronto."}
		]},
		{"id": "prices", "message": "Plan basico $10, plan completo $25. Deseas algo mas?", "isFinal": true, "options": [
			{"id": "1", "label": "Volver al inicio", "nextStepId": "welcome", "responseMessage": "Claro, empecemos de nuevo."}
		]}
	]`

	_, err := db.Exec(
		"INSERT INTO flows (id, name, description, is_active, steps) VALUES (?, ?, ?, ?, ?)",
		"3f0c7f1a-9a1e-4f6a-8c1d-1a2b3c4d5f01",
		"Menu principal",
		"Sample support dialogue",
		false,
		steps,
	)
	if err != nil {
		return fmt.Errorf("failed to seed sample flow: %w", err)
	}

	logger.Infof("Seeded sample flow")
	return nil
}
