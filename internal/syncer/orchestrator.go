package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/ziadkadry99/parksync/internal/config"
	"github.com/ziadkadry99/parksync/internal/connection"
	"github.com/ziadkadry99/parksync/internal/mapper"
	"github.com/ziadkadry99/parksync/internal/wp"
)

// ImportResult summarizes one import run. Counts partition the remote
// records the run walked: every record lands in exactly one bucket.
type ImportResult struct {
	Imported    int `json:"imported"`
	Updated     int `json:"updated"`
	Unchanged   int `json:"unchanged"`
	Failed      int `json:"failed"`
	TotalRemote int `json:"total_remote"`
}

// PageFetcher is the slice of the remote client the orchestrator needs.
type PageFetcher interface {
	Probe(ctx context.Context) error
	FetchPage(ctx context.Context, restBase string, page, perPage int) (*wp.Page, error)
}

// ProgressFunc is called after each processed record.
type ProgressFunc func(processed, total int)

// Options tune a single import run.
type Options struct {
	// UseAI switches record parsing from the confirmed field mapping to
	// model extraction over the rendered content.
	UseAI bool
	// Progress, when set, receives per-record progress updates.
	Progress ProgressFunc
}

// Orchestrator drives imports end to end: connectivity check, page walk,
// parse, fingerprint, upsert.
type Orchestrator struct {
	connections *connection.Store
	endpoints   *EndpointStore
	mappings    *mapper.Store
	records     *Store
	runs        *RunStore
	tracker     *Tracker

	// newClient builds the remote client for a site URL. Tests swap it.
	newClient func(siteURL string) PageFetcher
	// newAIParser builds the extraction parser. Nil disables the AI path.
	newAIParser func(kind config.SyncKind) RecordParser

	perPage  int
	maxPages int
}

// NewOrchestrator wires an orchestrator over the shared stores.
func NewOrchestrator(connections *connection.Store, endpoints *EndpointStore, mappings *mapper.Store, records *Store, runs *RunStore, tracker *Tracker) *Orchestrator {
	return &Orchestrator{
		connections: connections,
		endpoints:   endpoints,
		mappings:    mappings,
		records:     records,
		runs:        runs,
		tracker:     tracker,
		newClient: func(siteURL string) PageFetcher {
			return wp.NewClient(siteURL)
		},
		perPage:  wp.DefaultPerPage,
		maxPages: 50,
	}
}

// SetAIParserFactory enables the extraction strategy.
func (o *Orchestrator) SetAIParserFactory(f func(kind config.SyncKind) RecordParser) {
	o.newAIParser = f
}

// Run imports all remote entities of one kind for an agent's connection,
// records the run in history, and returns the counts. Concurrent runs for
// the same (connection, kind) are rejected with ErrSyncInProgress; other
// pairs proceed independently.
func (o *Orchestrator) Run(ctx context.Context, agentID string, kind config.SyncKind, opts Options) (*ImportResult, error) {
	conn, err := o.connections.GetByAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, connection.ErrNotConnected
	}

	endpoint, err := o.endpoints.Get(ctx, conn.ID, kind)
	if err != nil {
		return nil, err
	}
	if endpoint == nil || endpoint.RestBase == "" {
		return nil, fmt.Errorf("no endpoint configured for %s", kind)
	}

	parser, err := o.buildParser(ctx, conn.ID, kind, opts)
	if err != nil {
		return nil, err
	}

	if err := o.tracker.Begin(conn.ID, kind); err != nil {
		return nil, err
	}

	started := time.Now().UTC()
	result, runErr := o.importEntities(ctx, conn, endpoint, parser, opts.Progress)
	o.tracker.Finish(conn.ID, kind, runErr)

	finished := time.Now().UTC()
	run := &Run{
		ConnectionID: conn.ID,
		Kind:         kind,
		StartedAt:    started,
		FinishedAt:   &finished,
	}
	if result != nil {
		run.Result = *result
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if recErr := o.runs.Record(ctx, run); recErr != nil && runErr == nil {
		runErr = recErr
	}
	return result, runErr
}

func (o *Orchestrator) buildParser(ctx context.Context, connectionID string, kind config.SyncKind, opts Options) (RecordParser, error) {
	targets := mapper.TargetFields(string(kind))
	if opts.UseAI {
		if o.newAIParser == nil {
			return nil, fmt.Errorf("model extraction is not configured")
		}
		return o.newAIParser(kind), nil
	}
	stored, err := o.mappings.Get(ctx, connectionID, string(kind))
	if err != nil {
		return nil, err
	}
	if stored == nil || !stored.Confirmed {
		return nil, fmt.Errorf("no confirmed field mapping for %s", kind)
	}
	return &MappingParser{Mapping: stored.Mapping, Targets: targets}, nil
}

// importEntities performs the page walk. Upserts commit record by record:
// a fatal fetch error mid-walk keeps everything processed so far.
func (o *Orchestrator) importEntities(ctx context.Context, conn *connection.SiteConnection, endpoint *EndpointConfig, parser RecordParser, progress ProgressFunc) (*ImportResult, error) {
	client := o.newClient(conn.SiteURL)
	if err := client.Probe(ctx); err != nil {
		return nil, fmt.Errorf("site unreachable: %w", err)
	}
	if err := o.tracker.StartImport(conn.ID, endpoint.Kind); err != nil {
		return nil, err
	}

	result := &ImportResult{}
	processed := 0
	for page := 1; page <= o.maxPages; page++ {
		fetched, err := client.FetchPage(ctx, endpoint.RestBase, page, o.perPage)
		if err != nil {
			return result, fmt.Errorf("fetching page %d of %s: %w", page, endpoint.RestBase, err)
		}
		if fetched.Total >= 0 {
			result.TotalRemote = fetched.Total
		}
		if len(fetched.Records) == 0 {
			break
		}
		for _, raw := range fetched.Records {
			o.processRecord(ctx, conn.ID, endpoint.Kind, raw, parser, result)
			processed++
			if progress != nil {
				progress(processed, result.TotalRemote)
			}
		}
		if len(fetched.Records) < o.perPage {
			break
		}
	}
	if result.TotalRemote == 0 {
		result.TotalRemote = processed
	}

	if err := o.endpoints.SetLastSync(ctx, conn.ID, endpoint.Kind, time.Now().UTC()); err != nil {
		return result, fmt.Errorf("updating last sync time: %w", err)
	}
	return result, nil
}

// processRecord parses, fingerprints, and upserts one remote record. A
// failure here is isolated: it bumps the failed count and the walk
// continues.
func (o *Orchestrator) processRecord(ctx context.Context, connectionID string, kind config.SyncKind, raw map[string]any, parser RecordParser, result *ImportResult) {
	sourceID := recordID(raw)
	if sourceID == "" {
		result.Failed++
		return
	}

	fields, err := parser.Parse(ctx, raw)
	if err != nil {
		result.Failed++
		return
	}

	fingerprint := Fingerprint(fields)
	existing, err := o.records.Get(ctx, connectionID, kind, sourceID)
	if err != nil {
		result.Failed++
		return
	}

	switch {
	case existing == nil:
		rec := &SyncRecord{
			ConnectionID:       connectionID,
			Kind:               kind,
			SourceRecordID:     sourceID,
			Fields:             fields,
			ContentFingerprint: fingerprint,
		}
		if err := o.records.Insert(ctx, rec); err != nil {
			result.Failed++
			return
		}
		result.Imported++
	case existing.ContentFingerprint == fingerprint && fingerprint != "":
		result.Unchanged++
	default:
		if err := o.records.Update(ctx, existing.ID, fields, fingerprint); err != nil {
			result.Failed++
			return
		}
		result.Updated++
	}
}

// recordID pulls the remote identifier out of a raw record. WordPress
// serves numeric ids as JSON numbers.
func recordID(raw map[string]any) string {
	switch v := raw["id"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	case int:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}
