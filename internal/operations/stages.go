package operations

import (
	"context"
	"fmt"
	"log/slog"

	"pivotcli/internal/config"
	"pivotcli/internal/dataprocessing"
	"pivotcli/internal/exporter"
	"pivotcli/internal/files"
	"pivotcli/internal/infrastructure"
	"pivotcli/internal/scraper"
	"pivotcli/internal/storage"
	"pivotcli/internal/validation"
)

// Step IDs
const (
	StageIDFetch     = "fetch"
	StageIDAggregate = "aggregate"
	StageIDPersist   = "persist"
)

// Context keys
const (
	ContextExportLink     = "export_link"
	ContextFormattedTable = "formatted_table"
)

// FetchStage downloads the raw export
type FetchStage struct {
	BaseStage
	fetcher *scraper.Fetcher
	cfg     config.FetchConfig
	dest    string
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewFetchStage creates the fetch step writing to dest
func NewFetchStage(fetcher *scraper.Fetcher, cfg config.FetchConfig, dest string, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *FetchStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStage{
		BaseStage: NewBaseStage(StageIDFetch, "Fetch export"),
		fetcher:   fetcher,
		cfg:       cfg,
		dest:      dest,
		metrics:   metrics,
		logger:    infrastructure.WithComponent(logger, StageIDFetch),
	}
}

// Execute implements Step
func (s *FetchStage) Execute(ctx context.Context, state *OperationState) error {
	res, err := s.fetcher.Fetch(ctx, s.cfg.PageURL, s.cfg.Selector, s.dest)
	if err != nil {
		return err
	}

	s.metrics.RecordDownload(ctx, res.Bytes)
	state.SetArtifact(ArtifactRawExport, res.Path)
	state.SetContext(ContextExportLink, res.Link)

	s.logger.InfoContext(ctx, "Raw export saved",
		slog.String("path", res.Path),
		slog.Int64("bytes", res.Bytes))
	return nil
}

// AggregateStage builds the formatted pivot and writes the pivot workbook
type AggregateStage struct {
	BaseStage
	files     *files.Manager
	validator *validation.FileValidator
	pivot     config.PivotConfig
	output    config.OutputConfig
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger
}

// NewAggregateStage creates the aggregate step
func NewAggregateStage(fm *files.Manager, pivot config.PivotConfig, output config.OutputConfig, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *AggregateStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &AggregateStage{
		BaseStage: NewBaseStage(StageIDAggregate, "Aggregate pivot"),
		files:     fm,
		validator: validation.NewFileValidator(logger),
		pivot:     pivot,
		output:    output,
		metrics:   metrics,
		logger:    infrastructure.WithComponent(logger, StageIDAggregate),
	}
}

// Validate requires the raw export produced by the fetch step
func (s *AggregateStage) Validate(state *OperationState) error {
	return requireArtifact(s.validator, state, s.ID(), ArtifactRawExport)
}

// Execute implements Step
func (s *AggregateStage) Execute(ctx context.Context, state *OperationState) error {
	source, _ := state.Artifact(ArtifactRawExport)

	table, err := dataprocessing.ReadWorkbook(source, s.pivot.SourceSheet)
	if err != nil {
		return err
	}
	s.metrics.RecordRows(ctx, "raw", len(table.Rows))

	pivot, err := dataprocessing.Aggregate(table, s.PivotSpec())
	if err != nil {
		return err
	}
	s.metrics.RecordRows(ctx, "pivot", len(pivot.Rows))

	formatted := exporter.FormatPivot(pivot, s.FormatOptions())
	if err := exporter.WriteWorkbook(s.files, s.output.PivotFile, s.output.PivotSheet, formatted); err != nil {
		return err
	}

	state.SetArtifact(ArtifactPivotWorkbook, s.files.Path(s.output.PivotFile))
	state.SetContext(ContextFormattedTable, formatted)

	s.logger.InfoContext(ctx, "Pivot written",
		slog.String("path", s.files.Path(s.output.PivotFile)),
		slog.Int("raw_rows", len(table.Rows)),
		slog.Int("groups", len(pivot.Rows)))
	return nil
}

// PivotSpec maps the pivot configuration onto the aggregation spec
func (s *AggregateStage) PivotSpec() dataprocessing.PivotSpec {
	return dataprocessing.PivotSpec{
		Index:  s.pivot.IndexColumn,
		Values: s.pivot.ValueColumns,
		SortBy: s.pivot.SortColumn,
		Prefix: s.pivot.ColumnPrefix,
	}
}

// FormatOptions maps the pivot configuration onto display options.
// Currency columns are configured by source name and matched after renaming.
func (s *AggregateStage) FormatOptions() exporter.FormatOptions {
	currency := make([]string, len(s.pivot.CurrencyColumns))
	for i, c := range s.pivot.CurrencyColumns {
		currency[i] = s.pivot.ColumnPrefix + c
	}
	return exporter.FormatOptions{
		DecimalPlaces:      int32(s.pivot.DecimalPlaces),
		CurrencySymbol:     s.pivot.CurrencySymbol,
		CurrencyColumns:    currency,
		ThousandsSeparator: s.pivot.ThousandsSeparator,
	}
}

// PersistStage loads the pivot workbook into the database
type PersistStage struct {
	BaseStage
	files     *files.Manager
	validator *validation.FileValidator
	storage   config.StorageConfig
	sheet     string
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger
}

// NewPersistStage creates the persist step
func NewPersistStage(fm *files.Manager, cfg config.StorageConfig, pivotSheet string, metrics *infrastructure.PipelineMetrics, logger *slog.Logger) *PersistStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistStage{
		BaseStage: NewBaseStage(StageIDPersist, "Persist pivot"),
		files:     fm,
		validator: validation.NewFileValidator(logger),
		storage:   cfg,
		sheet:     pivotSheet,
		metrics:   metrics,
		logger:    infrastructure.WithComponent(logger, StageIDPersist),
	}
}

// Validate requires the pivot workbook produced by the aggregate step
func (s *PersistStage) Validate(state *OperationState) error {
	return requireArtifact(s.validator, state, s.ID(), ArtifactPivotWorkbook)
}

// Execute implements Step
func (s *PersistStage) Execute(ctx context.Context, state *OperationState) error {
	source, _ := state.Artifact(ArtifactPivotWorkbook)

	table, err := exporter.ReadWorkbook(source, s.sheet)
	if err != nil {
		return err
	}

	dbPath := s.files.Path(s.storage.DatabaseFile)
	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			s.logger.WarnContext(ctx, "Database close failed", slog.String("error", cerr.Error()))
		}
	}()

	if err := store.ReplaceTable(ctx, s.storage.TableName, table); err != nil {
		return err
	}

	s.metrics.RecordRows(ctx, "persisted", len(table.Rows))
	state.SetArtifact(ArtifactDatabase, dbPath)

	s.logger.InfoContext(ctx, "Pivot persisted",
		slog.String("database", dbPath),
		slog.String("table", s.storage.TableName),
		slog.Int("rows", len(table.Rows)))
	return nil
}

func requireArtifact(v *validation.FileValidator, state *OperationState, step, key string) error {
	path, ok := state.Artifact(key)
	if !ok {
		return NewValidationError(step, fmt.Sprintf("missing %s artifact", key))
	}
	if err := v.ValidateWorkbook(path); err != nil {
		return &OperationError{Type: ErrorTypeValidation, Step: step, Message: fmt.Sprintf("invalid %s artifact", key), Cause: err}
	}
	return nil
}
