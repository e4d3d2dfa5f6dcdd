package interfaces

import (
	"context"
	"io"
	"time"

	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// CatalogService defines department and service management
type CatalogService interface {
	CreateDepartment(ctx context.Context, req *types.DepartmentRequest, actor types.Actor) (*types.Department, error)
	ListDepartments(ctx context.Context) ([]*types.Department, error)

	CreateService(ctx context.Context, req *types.ServiceRequest, actor types.Actor) (*types.Service, error)
	GetService(ctx context.Context, id string) (*types.Service, error)
	ListServices(ctx context.Context, filters *types.ServiceFilters) ([]*types.Service, error)
	UpdateService(ctx context.Context, id string, updates *types.ServiceUpdates, actor types.Actor) (*types.Service, error)
}

// CatalogRepository defines catalog persistence
type CatalogRepository interface {
	CreateDepartment(ctx context.Context, dept *types.Department) error
	GetDepartmentByID(ctx context.Context, id string) (*types.Department, error)
	ListDepartments(ctx context.Context) ([]*types.Department, error)

	CreateService(ctx context.Context, svc *types.Service) error
	GetServiceByID(ctx context.Context, id string) (*types.Service, error)
	GetServicesByIDs(ctx context.Context, ids []string) ([]*types.Service, error)
	ListServices(ctx context.Context, filters *types.ServiceFilters) ([]*types.Service, error)
	UpdateService(ctx context.Context, id string, updates *types.ServiceUpdates) error
}

// BookingService defines appointment booking and management
type BookingService interface {
	Book(ctx context.Context, req *types.BookingRequest, actor types.Actor) (*types.Appointment, error)
	Quote(ctx context.Context, req *types.QuoteRequest) (*types.Quote, error)

	GetAppointment(ctx context.Context, id string, actor types.Actor) (*types.Appointment, error)
	ListAppointments(ctx context.Context, filters *types.AppointmentFilters, actor types.Actor) ([]*types.Appointment, error)
	CancelAppointment(ctx context.Context, id, reason string, actor types.Actor) (*types.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status types.AppointmentStatus, actor types.Actor) (*types.Appointment, error)
	AssignStaff(ctx context.Context, id, staffID string, actor types.Actor) (*types.Appointment, error)

	Export(ctx context.Context, filters *types.AppointmentFilters, format string, w io.Writer, actor types.Actor) error
	Stats(ctx context.Context, actor types.Actor) (*types.DashboardStats, error)
}

// AppointmentRepository defines appointment persistence
type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, apt *types.Appointment) error
	GetAppointmentByID(ctx context.Context, id string) (*types.Appointment, error)
	ListAppointments(ctx context.Context, filters *types.AppointmentFilters) ([]*types.Appointment, error)
	HasActiveAppointmentAt(ctx context.Context, patientID string, at time.Time) (bool, error)

	// UpdateStatus moves the appointment only while it is still in status from
	UpdateStatus(ctx context.Context, id string, from, to types.AppointmentStatus, reason string) error
	AssignStaff(ctx context.Context, id, staffID string) error

	GetStats(ctx context.Context, patientID string, dayStart, dayEnd, monthStart time.Time) (*types.DashboardStats, error)
}

// AppointmentReader is the read side other domains need from booking
type AppointmentReader interface {
	GetAppointmentByID(ctx context.Context, id string) (*types.Appointment, error)
}
