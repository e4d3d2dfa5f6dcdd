package database

import (
	"context"
	"fmt"
)

// CreateSchema creates the laboratory tables and indexes if they do not exist
func (db *DB) CreateSchema(ctx context.Context) error {
	log := db.logger.WithComponent("database")
	log.Info("Creating database schema...")

	tables := []string{
		createDepartmentsTable,
		createServicesTable,
		createAppointmentsTable,
		createAppointmentServicesTable,
		createPaymentsTable,
		createTestResultsTable,
		createNotificationsTable,
		createAuditLogsTable,
		createChatbotConversationsTable,
		createSystemSettingsTable,
		createProfilesTable,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		createServicesIndexes,
		createAppointmentsIndexes,
		createPaymentsIndexes,
		createNotificationsIndexes,
		createAuditLogsIndexes,
		createChatbotConversationsIndexes,
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	log.Info("Database schema created successfully")
	return nil
}

// ActiveSlotIndex is the partial unique index that keeps one active
// appointment per patient and timestamp.
const ActiveSlotIndex = "uniq_active_patient_slot"

// Unique constraints on the human-facing numbers
const (
	AppointmentReferenceKey = "appointments_reference_key"
	ReceiptNumberKey        = "payments_receipt_number_key"
)

// SQL DDL statements for table creation
const (
	createDepartmentsTable = `
		CREATE TABLE IF NOT EXISTS departments (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(100) UNIQUE NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location VARCHAR(200) NOT NULL DEFAULT '',
			phone VARCHAR(20) NOT NULL DEFAULT '',
			email VARCHAR(254) NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createServicesTable = `
		CREATE TABLE IF NOT EXISTS services (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(200) NOT NULL,
			department_id VARCHAR(36) NOT NULL REFERENCES departments(id),
			description TEXT NOT NULL DEFAULT '',
			price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
			duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
			sample_type VARCHAR(20) NOT NULL DEFAULT 'blood',
			requires_fasting BOOLEAN NOT NULL DEFAULT FALSE,
			preparation_instructions TEXT NOT NULL DEFAULT '',
			normal_range TEXT NOT NULL DEFAULT '',
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE (department_id, name)
		);`

	createAppointmentsTable = `
		CREATE TABLE IF NOT EXISTS appointments (
			id VARCHAR(36) PRIMARY KEY,
			reference VARCHAR(20) NOT NULL CONSTRAINT ` + AppointmentReferenceKey + ` UNIQUE,
			patient_id VARCHAR(100) NOT NULL,
			scheduled_at TIMESTAMP WITH TIME ZONE NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			priority VARCHAR(10) NOT NULL DEFAULT 'normal',
			discount_policy VARCHAR(20) NOT NULL DEFAULT 'none',
			total_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
			discount_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
			final_amount NUMERIC(10,2) NOT NULL DEFAULT 0 CHECK (final_amount >= 0),
			hmo_provider VARCHAR(100) NOT NULL DEFAULT '',
			hmo_card_number VARCHAR(50) NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			assigned_staff_id VARCHAR(100) NOT NULL DEFAULT '',
			cancellation_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createAppointmentServicesTable = `
		CREATE TABLE IF NOT EXISTS appointment_services (
			appointment_id VARCHAR(36) NOT NULL REFERENCES appointments(id) ON DELETE CASCADE,
			service_id VARCHAR(36) NOT NULL REFERENCES services(id),
			service_name VARCHAR(200) NOT NULL,
			price NUMERIC(10,2) NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (appointment_id, service_id)
		);`

	createPaymentsTable = `
		CREATE TABLE IF NOT EXISTS payments (
			id VARCHAR(36) PRIMARY KEY,
			receipt_number VARCHAR(20) NOT NULL CONSTRAINT ` + ReceiptNumberKey + ` UNIQUE,
			appointment_id VARCHAR(36) NOT NULL REFERENCES appointments(id),
			amount NUMERIC(10,2) NOT NULL CHECK (amount > 0),
			method VARCHAR(20) NOT NULL,
			reference_number VARCHAR(100) NOT NULL DEFAULT '',
			notes TEXT NOT NULL DEFAULT '',
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			verified_by VARCHAR(100) NOT NULL DEFAULT '',
			verified_at TIMESTAMP WITH TIME ZONE,
			created_by VARCHAR(100) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createTestResultsTable = `
		CREATE TABLE IF NOT EXISTS test_results (
			id VARCHAR(36) PRIMARY KEY,
			appointment_id VARCHAR(36) UNIQUE NOT NULL REFERENCES appointments(id),
			patient_id VARCHAR(100) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			result_text TEXT NOT NULL DEFAULT '',
			result_data JSONB,
			is_normal BOOLEAN,
			abnormal_findings TEXT NOT NULL DEFAULT '',
			recommendations TEXT NOT NULL DEFAULT '',
			technician_notes TEXT NOT NULL DEFAULT '',
			doctor_notes TEXT NOT NULL DEFAULT '',
			processed_by VARCHAR(100) NOT NULL DEFAULT '',
			reviewed_by VARCHAR(100) NOT NULL DEFAULT '',
			released_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createNotificationsTable = `
		CREATE TABLE IF NOT EXISTS notifications (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(100) NOT NULL,
			type VARCHAR(40) NOT NULL,
			title VARCHAR(200) NOT NULL,
			message TEXT NOT NULL,
			appointment_id VARCHAR(36) NOT NULL DEFAULT '',
			payment_id VARCHAR(36) NOT NULL DEFAULT '',
			is_read BOOLEAN NOT NULL DEFAULT FALSE,
			read_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createAuditLogsTable = `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(36) PRIMARY KEY,
			actor_id VARCHAR(100) NOT NULL,
			action VARCHAR(20) NOT NULL,
			entity VARCHAR(50) NOT NULL,
			entity_id VARCHAR(100) NOT NULL,
			changes JSONB,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createChatbotConversationsTable = `
		CREATE TABLE IF NOT EXISTS chatbot_conversations (
			id VARCHAR(36) PRIMARY KEY,
			session_id VARCHAR(100) NOT NULL,
			user_id VARCHAR(100) NOT NULL DEFAULT '',
			message TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createSystemSettingsTable = `
		CREATE TABLE IF NOT EXISTS system_settings (
			key VARCHAR(100) PRIMARY KEY,
			value TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`

	createProfilesTable = `
		CREATE TABLE IF NOT EXISTS profiles (
			user_id VARCHAR(100) PRIMARY KEY,
			full_name VARCHAR(200) NOT NULL,
			email VARCHAR(254) NOT NULL DEFAULT '',
			phone VARCHAR(20) NOT NULL DEFAULT '',
			notification_preference VARCHAR(10) NOT NULL DEFAULT 'email',
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);`
)

// SQL DDL statements for index creation
const (
	createServicesIndexes = `
		CREATE INDEX IF NOT EXISTS idx_services_department_id ON services(department_id);
		CREATE INDEX IF NOT EXISTS idx_services_is_available ON services(is_available);`

	createAppointmentsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_appointments_patient_id ON appointments(patient_id);
		CREATE INDEX IF NOT EXISTS idx_appointments_scheduled_at ON appointments(scheduled_at);
		CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status);
		CREATE UNIQUE INDEX IF NOT EXISTS ` + ActiveSlotIndex + `
			ON appointments(patient_id, scheduled_at)
			WHERE status IN ('pending', 'confirmed');`

	createPaymentsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_payments_appointment_id ON payments(appointment_id);
		CREATE INDEX IF NOT EXISTS idx_payments_verified_at ON payments(verified_at);`

	createNotificationsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id, is_read);`

	createAuditLogsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_audit_logs_actor_id ON audit_logs(actor_id);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity, entity_id);
		CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at);`

	createChatbotConversationsIndexes = `
		CREATE INDEX IF NOT EXISTS idx_chatbot_conversations_session ON chatbot_conversations(session_id);`
)
