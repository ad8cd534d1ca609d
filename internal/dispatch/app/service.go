package app

import (
	"context"
	"fmt"
	"log/slog"

	slogcontext "github.com/veqryn/slog-context"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nathantilsley/state-dispatcher/internal/dispatch/domain"
	"github.com/nathantilsley/state-dispatcher/internal/dispatch/ports"
)

const summaryHeading = "Dispatches summary"

// Options are the resolution policies fixed for the lifetime of a service.
type Options struct {
	SelectionPolicy domain.SelectionPolicy
	RegistryMatch   domain.RegistryMatch
	FullSHA         bool
}

// DispatchService implements ports.DispatchUseCase and ports.ValidateUseCase:
// read the manifest and configuration, build and filter candidates, resolve
// their images, group them and emit one dispatch per group.
type DispatchService struct {
	manifests  ports.ManifestPort
	configs    ports.ConfigPort
	releases   ports.ReleasesPort
	checkRuns  ports.CheckRunsPort
	dispatcher ports.DispatchPort
	reporter   ports.ReportingPort
	opts       Options
	logger     *slog.Logger
	tracer     trace.Tracer

	candidatesCounter metric.Int64Counter
	eventsCounter     metric.Int64Counter
	failuresCounter   metric.Int64Counter
}

// NewDispatchService creates a new DispatchService wired with all driven ports.
func NewDispatchService(
	manifests ports.ManifestPort,
	configs ports.ConfigPort,
	releases ports.ReleasesPort,
	checkRuns ports.CheckRunsPort,
	dispatcher ports.DispatchPort,
	reporter ports.ReportingPort,
	opts Options,
	logger *slog.Logger,
	meter metric.Meter,
	tracer trace.Tracer,
) *DispatchService {
	if opts.SelectionPolicy == "" {
		opts.SelectionPolicy = domain.SelectAny
	}
	if opts.RegistryMatch == "" {
		opts.RegistryMatch = domain.RegistryMatchAlways
	}

	// Instrument creation only fails on invalid names; the returned
	// instrument is usable either way.
	candidates, _ := meter.Int64Counter("dispatch.candidates",
		metric.WithDescription("Candidates left after filtering"))
	events, _ := meter.Int64Counter("dispatch.events",
		metric.WithDescription("Dispatch events sent"))
	failures, _ := meter.Int64Counter("dispatch.failures",
		metric.WithDescription("Runs that ended in failure"))

	return &DispatchService{
		manifests:         manifests,
		configs:           configs,
		releases:          releases,
		checkRuns:         checkRuns,
		dispatcher:        dispatcher,
		reporter:          reporter,
		opts:              opts,
		logger:            logger,
		tracer:            tracer,
		candidatesCounter: candidates,
		eventsCounter:     events,
		failuresCounter:   failures,
	}
}

// Execute runs the whole dispatch pipeline. Any error aborts the run and is
// reported through the Failure sink; the summary is published either way.
func (s *DispatchService) Execute(ctx context.Context, req domain.RunRequest) (results []domain.DispatchResult, err error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.run",
		trace.WithAttributes(attribute.String("manifest.source", req.Source())))
	defer span.End()

	log := s.logger.With("manifest", req.ManifestPath, "ref", req.Ref, "sha", req.SHA)
	ctx = slogcontext.NewCtx(ctx, log)

	var rows []domain.SummaryRow
	defer func() {
		if err != nil {
			s.failuresCounter.Add(ctx, 1)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.reporter.Failure(ctx, fmt.Sprintf("dispatching from %s: %s", req.Source(), err))
		}
		s.reporter.Summary(ctx, summaryHeading, rows)
	}()

	candidates, err := s.filteredCandidates(ctx, req)
	if err != nil {
		return nil, err
	}
	s.candidatesCounter.Add(ctx, int64(len(candidates)))

	if len(candidates) == 0 {
		log.Warn("no dispatches to make", "source", req.Source())
		return []domain.DispatchResult{}, nil
	}

	ready, rows, err := s.resolveImages(ctx, req, candidates)
	if err != nil {
		return nil, err
	}

	if len(ready) == 0 {
		log.Warn("no dispatches to make after image resolution", "source", req.Source())
		return []domain.DispatchResult{}, nil
	}

	groups := domain.GroupCandidates(ready)
	log.Info("dispatching", "groups", len(groups), "images", len(ready))

	results, err = Emit(ctx, s.dispatcher, groups)
	s.eventsCounter.Add(ctx, int64(len(results)))
	if err != nil {
		return results, err
	}

	log.Info("dispatch run complete", "events", len(results))
	return results, nil
}

// Validate reads the manifest and configuration and returns the filtered
// candidates without resolving versions or dispatching anything.
func (s *DispatchService) Validate(ctx context.Context, req domain.RunRequest) ([]domain.Candidate, error) {
	ctx, span := s.tracer.Start(ctx, "dispatch.validate")
	defer span.End()

	ctx = slogcontext.NewCtx(ctx, s.logger.With("manifest", req.ManifestPath, "ref", req.Ref))

	candidates, err := s.filteredCandidates(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return candidates, nil
}

// filteredCandidates loads every input of the list builder, builds the
// candidates and applies the run filters.
func (s *DispatchService) filteredCandidates(ctx context.Context, req domain.RunRequest) ([]domain.Candidate, error) {
	log := slogcontext.FromCtx(ctx)

	deployments, err := s.manifests.GetDeployments(ctx, req.ManifestPath, req.Ref)
	if err != nil {
		return nil, fmt.Errorf("reading deployments: %w", err)
	}
	log.Info("loaded deployments", "count", len(deployments))

	apps, err := s.configs.LoadApps(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading app configs: %w", err)
	}
	clusters, err := s.configs.LoadClusters(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading cluster configs: %w", err)
	}
	registries, err := s.configs.LoadRegistries(ctx, req.DefaultRegistries)
	if err != nil {
		return nil, fmt.Errorf("loading registry configs: %w", err)
	}

	candidates, err := BuildCandidates(BuildInput{
		DefaultImageRepository: req.Repository.FullName(),
		RepositoryCaller:       req.Repository.FullName(),
		Deployments:            deployments,
		Reviewers:              req.Reviewers,
		Apps:                   apps,
		Clusters:               clusters,
		Registries:             registries,
		DefaultRegistries:      req.DefaultRegistries,
		Overrides:              req.Overrides,
		Policy:                 s.opts.SelectionPolicy,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("building deployment list: %w", err)
	}

	filtered := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !req.Filters.Allows(c) {
			log.Debug("skipping filtered candidate",
				"application", c.App, "flavor", c.Flavor, "type", c.Type,
				"tenant", c.Tenant, "env", c.Env, "platform", c.Platform)
			continue
		}
		filtered = append(filtered, c)
	}

	log.Info("built candidates", "total", len(candidates), "filtered", len(filtered))
	return filtered, nil
}

// resolveImages resolves each candidate in order and records a summary row
// for every candidate it touched, including the one that failed.
func (s *DispatchService) resolveImages(
	ctx context.Context,
	req domain.RunRequest,
	candidates []domain.Candidate,
) ([]domain.Candidate, []domain.SummaryRow, error) {
	log := slogcontext.FromCtx(ctx)

	summaries, err := NewBuildSummaryLookup(s.checkRuns, req.CheckRunName, req.BuildSummary)
	if err != nil {
		return nil, nil, err
	}
	images := NewImageResolver(NewVersionResolver(s.releases, s.opts.FullSHA), summaries, s.opts.RegistryMatch)

	var (
		ready []domain.Candidate
		rows  []domain.SummaryRow
	)
	for _, c := range candidates {
		resolved, ok, err := images.Resolve(ctx, c)
		if err != nil {
			rows = append(rows, domain.NewSummaryRow(c, domain.StatusError+": "+err.Error()))
			s.reporter.Error(ctx, err.Error())
			return nil, rows, err
		}
		if !ok {
			log.Warn("no prerelease found, skipping candidate",
				"application", c.App, "flavor", c.Flavor, "version", c.Version)
			rows = append(rows, domain.NewSummaryRow(c, domain.StatusSkipped+": no prerelease found"))
			continue
		}

		rows = append(rows, domain.NewSummaryRow(resolved, resolved.Message))
		s.reporter.Notice(ctx, fmt.Sprintf("Dispatching image %s to state repo %s for service %s",
			resolved.Image, resolved.StateRepo, resolved.ServiceLabel()))
		ready = append(ready, resolved)
	}
	return ready, rows, nil
}
