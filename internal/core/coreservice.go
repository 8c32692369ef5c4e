package core

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jo-hoe/aisign/internal/backend/commandstructure"
	_ "github.com/jo-hoe/aisign/internal/backend/commands"
	"github.com/jo-hoe/aisign/internal/backend/database"
	"github.com/jo-hoe/aisign/internal/backend/policy"
	"github.com/jo-hoe/aisign/internal/backend/watermark"
	"github.com/jo-hoe/aisign/internal/verdict"
)

// ErrUnreadableImage is returned when uploaded bytes do not decode as an image.
var ErrUnreadableImage = errors.New("invalid image data")

// ErrImageTooSmall is returned when an upload is below the minimum signable size.
var ErrImageTooSmall = watermark.ErrImageTooSmall

// EmbedResult is a signed image and the record it was stored under.
type EmbedResult struct {
	ID       string
	Data     []byte
	Format   string
	MIMEType string
}

// VerifyOutcome is the detection and policy outcome for one upload.
type VerifyOutcome struct {
	ID              string
	DetectionStatus verdict.Status
	Confidence      float64
	Context         string
	Decision        verdict.Decision
	Reason          string
}

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	invoker         *commandstructure.CommandInvoker
	detector        *watermark.Detector
	policy          *policy.Engine
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	invoker, err := getInvoker(config.Backend.Commands)
	if err != nil {
		return nil, err
	}

	rules := policy.DefaultRules()
	if len(config.Backend.Policy) > 0 {
		rules, err = policy.RulesFromConfig(config.Backend.Policy)
		if err != nil {
			return nil, fmt.Errorf("invalid policy configuration: %w", err)
		}
	}

	databaseService, err := getDatabaseService(config)
	if err != nil {
		return nil, err
	}

	slog.Info("core service initialized",
		"commands", invoker.Names(),
		"contexts", len(rules))

	return &CoreService{
		config:          config,
		databaseService: databaseService,
		invoker:         invoker,
		detector:        watermark.NewDetector(config.Backend.Detection.AuthenticThreshold, config.Backend.Detection.TamperedThreshold),
		policy:          policy.NewEngine(rules),
	}, nil
}

// Embed runs the configured pipeline over an upload and stores both versions.
func (service *CoreService) Embed(filename string, image []byte) (*EmbedResult, error) {
	if _, err := watermark.SniffFormat(image); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	signed, err := service.invoker.Execute(image)
	if err != nil {
		return nil, err
	}

	format, err := watermark.SniffFormat(signed)
	if err != nil {
		return nil, fmt.Errorf("pipeline produced unreadable output: %w", err)
	}

	id, err := service.databaseService.CreateEmbedRecord(filename, image, signed)
	if err != nil {
		return nil, fmt.Errorf("failed to store embed record: %w", err)
	}

	return &EmbedResult{
		ID:       id,
		Data:     signed,
		Format:   format,
		MIMEType: watermark.MIMEType(format),
	}, nil
}

// Verify scans an upload for a signature and applies the usage policy.
func (service *CoreService) Verify(filename string, image []byte, usageContext string) (*VerifyOutcome, error) {
	usageContext = strings.ToLower(usageContext)

	img, _, err := watermark.Decode(image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	detection, err := service.detector.Detect(img)
	if err != nil {
		return nil, err
	}
	result := service.policy.Enforce(detection.Status, usageContext)

	id, err := service.databaseService.CreateVerifyRecord(filename, image, database.VerifyFields{
		DetectionStatus: string(detection.Status),
		Confidence:      detection.Confidence,
		Context:         usageContext,
		Decision:        string(result.Decision),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store verify record: %w", err)
	}

	slog.Info("image verified",
		"id", id,
		"status", detection.Status,
		"confidence", detection.Confidence,
		"context", usageContext,
		"decision", result.Decision)

	return &VerifyOutcome{
		ID:              id,
		DetectionStatus: detection.Status,
		Confidence:      detection.Confidence,
		Context:         usageContext,
		Decision:        result.Decision,
		Reason:          result.Reason,
	}, nil
}

// Records lists stored records of one kind, oldest first.
func (service *CoreService) Records(kind database.Kind) ([]*database.Record, error) {
	return service.databaseService.GetRecords(kind)
}

// Record returns a stored record, or nil if none exists.
func (service *CoreService) Record(id string) (*database.Record, error) {
	return service.databaseService.GetRecordByID(id)
}

// DeleteRecord removes a stored record.
func (service *CoreService) DeleteRecord(id string) error {
	return service.databaseService.DeleteRecord(id)
}

// Contexts lists the usage contexts the policy knows.
func (service *CoreService) Contexts() []string {
	return service.policy.Contexts()
}

func (service *CoreService) Close() error {
	return service.databaseService.Close()
}

func getInvoker(configs []CommandConfig) (*commandstructure.CommandInvoker, error) {
	commandConfigs := make([]commandstructure.CommandConfig, 0, len(configs))
	for _, config := range configs {
		if !commandstructure.DefaultRegistry.IsRegistered(config.Name) {
			return nil, fmt.Errorf("unknown command %q, available: %s", config.Name,
				strings.Join(commandstructure.DefaultRegistry.GetRegisteredNames(), ", "))
		}
		commandConfigs = append(commandConfigs, commandstructure.CommandConfig{
			Name:   config.Name,
			Params: config.Params,
		})
	}
	invoker, err := commandstructure.NewCommandInvokerFromConfig(commandstructure.DefaultRegistry, commandConfigs)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize command pipeline: %w", err)
	}
	return invoker, nil
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Backend.Database.Type, config.Backend.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("database initialized successfully", "type", config.Backend.Database.Type)
	return databaseService, nil
}
