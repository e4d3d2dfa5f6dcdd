// Package seed loads the sample laboratory catalog.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aniemarie21/maes-laboratory-system/pkg/interfaces"
	"github.com/aniemarie21/maes-laboratory-system/pkg/logger"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

// ServiceSeed describes one sample service
type ServiceSeed struct {
	Name            string
	Description     string
	Price           string
	DurationMinutes int
	SampleType      types.SampleType
	RequiresFasting bool
	Preparation     string
	NormalRange     string
}

// DepartmentSeed describes a sample department and its services
type DepartmentSeed struct {
	Name        string
	Description string
	Location    string
	Services    []ServiceSeed
}

// Catalog is the sample catalog loaded by labctl seed
var Catalog = []DepartmentSeed{
	{
		Name:        "Hematology",
		Description: "Blood cell counts and coagulation studies",
		Location:    "Ground floor, Room 101",
		Services: []ServiceSeed{
			{
				Name:            "Complete Blood Count (CBC)",
				Description:     "White and red blood cells, hemoglobin, hematocrit and platelets",
				Price:           "350.00",
				DurationMinutes: 15,
				SampleType:      types.SampleBlood,
				Preparation:     "No special preparation required",
				NormalRange:     "Hemoglobin 12.0-17.5 g/dL",
			},
		},
	},
	{
		Name:        "Clinical Chemistry",
		Description: "Blood glucose, lipids and organ function tests",
		Location:    "Ground floor, Room 102",
		Services: []ServiceSeed{
			{
				Name:            "Fasting Blood Sugar (FBS)",
				Description:     "Blood glucose after fasting to screen for diabetes",
				Price:           "150.00",
				DurationMinutes: 15,
				SampleType:      types.SampleBlood,
				RequiresFasting: true,
				Preparation:     "8-12 hours fasting required",
				NormalRange:     "70-100 mg/dL",
			},
			{
				Name:            "Lipid Profile",
				Description:     "Cholesterol and triglycerides for cardiovascular risk",
				Price:           "600.00",
				DurationMinutes: 15,
				SampleType:      types.SampleBlood,
				RequiresFasting: true,
				Preparation:     "12 hours fasting required",
				NormalRange:     "Total cholesterol below 200 mg/dL",
			},
		},
	},
	{
		Name:        "Clinical Microscopy",
		Description: "Urine and stool examinations",
		Location:    "Ground floor, Room 103",
		Services: []ServiceSeed{
			{
				Name:            "Urinalysis",
				Description:     "Complete urine examination for kidney function and infection",
				Price:           "200.00",
				DurationMinutes: 10,
				SampleType:      types.SampleUrine,
				Preparation:     "Clean catch midstream urine sample",
			},
		},
	},
	{
		Name:        "Radiology",
		Description: "X-ray and ultrasound imaging",
		Location:    "Second floor, Imaging Suite",
		Services: []ServiceSeed{
			{
				Name:            "Chest X-Ray",
				Description:     "Chest radiograph for lung and heart conditions",
				Price:           "500.00",
				DurationMinutes: 20,
				SampleType:      types.SampleImaging,
				Preparation:     "Remove all metal objects and jewelry",
			},
			{
				Name:            "Whole Abdomen Ultrasound",
				Description:     "Ultrasound of the liver, gallbladder, pancreas, spleen and kidneys",
				Price:           "800.00",
				DurationMinutes: 30,
				SampleType:      types.SampleImaging,
				RequiresFasting: true,
				Preparation:     "8 hours fasting; drink water and do not void an hour before",
			},
		},
	},
	{
		Name:        "Cardiology",
		Description: "Heart rhythm studies",
		Location:    "Second floor, Room 204",
		Services: []ServiceSeed{
			{
				Name:            "Electrocardiogram (ECG)",
				Description:     "Heart rhythm and electrical activity examination",
				Price:           "400.00",
				DurationMinutes: 15,
				SampleType:      types.SampleOther,
				Preparation:     "No special preparation required",
			},
		},
	},
}

// Result counts what a Load call created
type Result struct {
	Departments int
	Services    int
}

// Load creates every department and service in catalog that does not exist
// yet, matching by name. Running it twice creates nothing the second time.
func Load(ctx context.Context, repo interfaces.CatalogRepository, catalog []DepartmentSeed, log *logger.Logger) (*Result, error) {
	existingDepts, err := repo.ListDepartments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	deptIDs := make(map[string]string, len(existingDepts))
	for _, d := range existingDepts {
		deptIDs[d.Name] = d.ID
	}

	existingServices, err := repo.ListServices(ctx, &types.ServiceFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	serviceNames := make(map[string]bool, len(existingServices))
	for _, s := range existingServices {
		serviceNames[s.Name] = true
	}

	res := &Result{}
	now := time.Now()
	for _, ds := range catalog {
		deptID, ok := deptIDs[ds.Name]
		if !ok {
			dept := &types.Department{
				ID:          uuid.New().String(),
				Name:        ds.Name,
				Description: ds.Description,
				Location:    ds.Location,
				IsActive:    true,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := repo.CreateDepartment(ctx, dept); err != nil {
				return res, fmt.Errorf("failed to seed department %q: %w", ds.Name, err)
			}
			deptID = dept.ID
			deptIDs[ds.Name] = deptID
			res.Departments++
		}

		for _, ss := range ds.Services {
			if serviceNames[ss.Name] {
				continue
			}
			price, err := decimal.NewFromString(ss.Price)
			if err != nil {
				return res, fmt.Errorf("invalid price for %q: %w", ss.Name, err)
			}
			svc := &types.Service{
				ID:                      uuid.New().String(),
				Name:                    ss.Name,
				DepartmentID:            deptID,
				Description:             ss.Description,
				Price:                   price,
				DurationMinutes:         ss.DurationMinutes,
				SampleType:              ss.SampleType,
				RequiresFasting:         ss.RequiresFasting,
				PreparationInstructions: ss.Preparation,
				NormalRange:             ss.NormalRange,
				IsAvailable:             true,
				CreatedAt:               now,
				UpdatedAt:               now,
			}
			if err := repo.CreateService(ctx, svc); err != nil {
				return res, fmt.Errorf("failed to seed service %q: %w", ss.Name, err)
			}
			serviceNames[ss.Name] = true
			res.Services++
		}
	}

	log.WithComponent("seed").WithFields(map[string]interface{}{
		"departments": res.Departments,
		"services":    res.Services,
	}).Info("Sample catalog loaded")
	return res, nil
}
