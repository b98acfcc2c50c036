package seed

import (
	"fmt"
	"time"
	"warrantyhub/config"
	. "warrantyhub/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type visitSeed struct {
	daysAgo int
	status  ServiceRequestStatus
	cost    string
}

type machineSeed struct {
	serial      string
	modelNumber string
	soldDaysAgo *int
	customer    string
	email       string
	optOut      bool
	visits      []visitSeed
}

func intPtr(value int) *int {
	return &value
}

func stringPtr(value string) *string {
	return &value
}

// demoMachines covers every reminder path: each urgency window, overdue,
// expired warranty, opted out, no email and unsold stock.
var demoMachines = []machineSeed{
	{serial: "DEMO-0001", modelNumber: "AP-500", soldDaysAgo: intPtr(165), customer: "Ada Lovelace", email: "ada@example.com"},
	{serial: "DEMO-0002", modelNumber: "AP-500", soldDaysAgo: intPtr(173), customer: "Grace Hopper", email: "grace@example.com"},
	{serial: "DEMO-0003", modelNumber: "AP-300", soldDaysAgo: intPtr(177), customer: "Alan Turing", email: "alan@example.com"},
	{serial: "DEMO-0004", modelNumber: "AP-300", soldDaysAgo: intPtr(180), customer: "Katherine Johnson", email: "katherine@example.com"},
	{serial: "DEMO-0005", modelNumber: "AP-300", soldDaysAgo: intPtr(300), customer: "Edsger Dijkstra", email: "edsger@example.com"},
	{
		serial:      "DEMO-0006",
		modelNumber: "AP-900C",
		soldDaysAgo: intPtr(400),
		customer:    "Barbara Liskov",
		email:       "barbara@example.com",
		visits: []visitSeed{
			{daysAgo: 300, status: ServiceRequestStatusCompleted, cost: "120.00"},
			{daysAgo: 200, status: ServiceRequestStatusCompleted, cost: "95.50"},
			{daysAgo: 83, status: ServiceRequestStatusCompleted, cost: "140.25"},
		},
	},
	{
		serial:      "DEMO-0007",
		modelNumber: "CF-MINI",
		soldDaysAgo: intPtr(500),
		customer:    "Donald Knuth",
		email:       "donald@example.com",
		visits: []visitSeed{
			{daysAgo: 320, status: ServiceRequestStatusCompleted, cost: "60.00"},
			{daysAgo: 10, status: ServiceRequestStatusCancelled, cost: "0"},
		},
	},
	{serial: "DEMO-0008", modelNumber: "CF-PRO", soldDaysAgo: intPtr(113), customer: "Frances Allen", email: "frances@example.com", optOut: true},
	{serial: "DEMO-0009", modelNumber: "CF-PRO", soldDaysAgo: intPtr(117), customer: "John Backus"},
	{serial: "DEMO-0010", modelNumber: "AP-500"},
}

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	now := time.Now().UTC()

	for _, entry := range demoMachines {
		var existing Machine
		if err := db.First(&existing, "serial_number = ?", entry.serial).Error; err == nil {
			log.Info("Machine already exists", "serial", entry.serial)
			continue
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			return seedMachine(tx, entry, now)
		}); err != nil {
			return log.Err("failed to seed machine", err, "serial", entry.serial)
		}
		log.Info("Seeded machine", "serial", entry.serial)
	}

	return nil
}

func seedMachine(tx *gorm.DB, entry machineSeed, now time.Time) error {
	var machineModel MachineModel
	if err := tx.First(&machineModel, "model_number = ?", entry.modelNumber).Error; err != nil {
		return fmt.Errorf("machine model %s: %w", entry.modelNumber, err)
	}

	machine := Machine{
		SerialNumber:   entry.serial,
		MachineModelID: machineModel.ID,
		TestResult: &MachineTestResult{
			Passed:   true,
			TestedBy: "factory",
			Readings: map[string]float64{"tds_ppm": 12, "flow_lpm": 2.4},
		},
	}
	if err := tx.Create(&machine).Error; err != nil {
		return err
	}

	if entry.soldDaysAgo == nil {
		return nil
	}

	sale := Sale{
		MachineID:      machine.ID,
		SaleDate:       now.AddDate(0, 0, -*entry.soldDaysAgo),
		CustomerName:   entry.customer,
		ReminderOptOut: entry.optOut,
	}
	if entry.email != "" {
		sale.CustomerEmail = stringPtr(entry.email)
	}
	if err := tx.Create(&sale).Error; err != nil {
		return err
	}

	for _, visit := range entry.visits {
		request := ServiceRequest{
			MachineID: machine.ID,
			Status:    visit.status,
			Complaint: "Scheduled maintenance",
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}

		visitDate := now.AddDate(0, 0, -visit.daysAgo)
		if err := tx.Create(&ServiceVisit{
			ServiceRequestID: request.ID,
			ServiceVisitDate: &visitDate,
			TotalCost:        decimal.RequireFromString(visit.cost),
			EngineerName:     "Demo Engineer",
		}).Error; err != nil {
			return err
		}
	}

	return nil
}
