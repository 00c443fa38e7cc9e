package demo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/conduitplatform/conduit-cli/internal/core/catalog"
	"github.com/conduitplatform/conduit-cli/internal/core/compose"
	"github.com/conduitplatform/conduit-cli/internal/core/deployment"
	"github.com/conduitplatform/conduit-cli/internal/core/validation"
	"github.com/conduitplatform/conduit-cli/internal/shell/docker"
	"github.com/conduitplatform/conduit-cli/internal/shell/store"
)

// =============================================================================
// Service Errors
// =============================================================================

var (
	// ErrSetupCanceled is returned when the user keeps an existing demo.
	// It is a normal outcome, not a failure.
	ErrSetupCanceled = errors.New("setup canceled")

	// ErrNoDemo is returned when a command needs a plan and none is stored.
	ErrNoDemo = errors.New("no demo deployment found, run `conduit demo setup` first")

	// ErrNoTags is returned when a release index lists no tags at all.
	ErrNoTags = errors.New("no release tags available")

	// ErrHistoryDisabled is returned by History when no history store is set.
	ErrHistoryDisabled = errors.New("setup history is disabled")
)

// =============================================================================
// Collaborators
// =============================================================================

// ReleaseIndex lists the version tags published for a project, ordered
// with the suggested default first.
type ReleaseIndex interface {
	ListTags(ctx context.Context, project string) ([]string, error)
}

// Deployer runs a persisted plan.
type Deployer interface {
	StartPlan(ctx context.Context, plan deployment.Plan) ([]docker.ContainerState, error)
	StopPlan(ctx context.Context, plan deployment.Plan) error
	RemovePlan(ctx context.Context, plan deployment.Plan) error
	Status(ctx context.Context, plan deployment.Plan) ([]docker.ContainerState, error)
}

// Prompter asks the user for choices while the selection is built.
type Prompter interface {
	Confirm(question string, def bool) (bool, error)
	ChooseOne(question string, options []string, def string) (string, error)
	InputValid(question, def string, validate func(string) (bool, string)) (string, error)
}

// engineOptions are offered by the engine prompt; "postgres" maps to the
// postgresql engine.
var engineOptions = []string{"mongodb", "postgres"}

// =============================================================================
// Service
// =============================================================================

// Deps are the collaborators of the demo service.
// History may be nil; Prompter is only needed for configured setups.
type Deps struct {
	Synthesizer *Synthesizer
	Plans       store.PlanStore
	History     store.HistoryStore
	Releases    ReleaseIndex
	Deployer    Deployer
	Prompter    Prompter
	Out         io.Writer
}

// Service implements the demo commands.
type Service struct {
	synth    *Synthesizer
	plans    store.PlanStore
	history  store.HistoryStore
	releases ReleaseIndex
	deployer Deployer
	prompter Prompter
	out      io.Writer
	logger   *slog.Logger
}

// NewService creates a new demo service.
func NewService(deps Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	return &Service{
		synth:    deps.Synthesizer,
		plans:    deps.Plans,
		history:  deps.History,
		releases: deps.Releases,
		deployer: deps.Deployer,
		prompter: deps.Prompter,
		out:      out,
		logger:   logger,
	}
}

// SetupOptions controls a setup run.
type SetupOptions struct {
	// Configure asks for versions, extra modules, engine and credentials
	// instead of using the defaults.
	Configure bool
}

// SetupResult is what a successful setup produced.
type SetupResult struct {
	Plan       deployment.Plan
	Selection  deployment.Selection
	Containers []docker.ContainerState
	HistoryID  string
}

// =============================================================================
// Setup
// =============================================================================

// Setup bootstraps a demo deployment: it replaces an existing demo after
// confirmation, builds the selection, synthesizes and saves the plan, then
// starts it.
func (s *Service) Setup(ctx context.Context, opts SetupOptions) (*SetupResult, error) {
	exists, err := s.plans.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check existing demo: %w", err)
	}
	if exists {
		replace, err := s.prompter.Confirm("An existing demo deployment was detected. Are you sure you wish to overwrite it?", false)
		if err != nil {
			return nil, err
		}
		if !replace {
			fmt.Fprintln(s.out, "Setup canceled")
			return nil, ErrSetupCanceled
		}
		if err := s.Cleanup(ctx); err != nil {
			return nil, fmt.Errorf("remove existing demo: %w", err)
		}
	}

	conduitTags, err := s.listTags(ctx, catalog.ConduitProject)
	if err != nil {
		return nil, err
	}
	uiTags, err := s.listTags(ctx, catalog.ConduitUIProject)
	if err != nil {
		return nil, err
	}

	sel := deployment.DefaultSelection(conduitTags[0], uiTags[0])
	if opts.Configure {
		sel, err = s.configure(sel, conduitTags, uiTags)
		if err != nil {
			return nil, err
		}
	}

	fmt.Fprintln(s.out, "\nSetting up container environment. This may take some time...")
	plan, err := s.synth.Synthesize(ctx, sel)
	if err != nil {
		return nil, err
	}

	if err := s.plans.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}

	result := &SetupResult{Plan: plan, Selection: sel}
	result.HistoryID = s.recordSetup(ctx, sel, plan)

	fmt.Fprintf(s.out, "\nDatabase Credentials for %s:\n", plan.Engine.DisplayName())
	fmt.Fprintf(s.out, "Username:\t%s\n", sel.Credentials.Username)
	fmt.Fprintf(s.out, "Password:\t%s\n\n", sel.Credentials.Password)

	containers, err := s.deployer.StartPlan(ctx, plan)
	if err != nil {
		return result, fmt.Errorf("start demo: %w", err)
	}
	result.Containers = containers
	return result, nil
}

func (s *Service) listTags(ctx context.Context, project string) ([]string, error) {
	tags, err := s.releases.ListTags(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("list %s releases: %w", project, err)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTags, project)
	}
	return tags, nil
}

// configure walks the user through the selection choices.
func (s *Service) configure(sel deployment.Selection, conduitTags, uiTags []string) (deployment.Selection, error) {
	conduitTag, err := s.prompter.InputValid("Specify your desired Conduit version", conduitTags[0], tagCheck(conduitTags))
	if err != nil {
		return sel, err
	}
	uiTag, err := s.prompter.InputValid("Specify your desired Conduit UI version", uiTags[0], tagCheck(uiTags))
	if err != nil {
		return sel, err
	}
	sel.ConduitTag = conduitTag
	sel.UITag = uiTag

	fmt.Fprintln(s.out, "\nThe following Conduit modules are going to be brought up by default:")
	fmt.Fprintln(s.out, joinIDs(sel.Modules()))
	fmt.Fprintln(s.out)

	extra, err := s.prompter.Confirm("Specify additional modules?", false)
	if err != nil {
		return sel, err
	}
	if extra {
		for _, id := range deployment.AvailableModules(sel) {
			add, err := s.prompter.Confirm(fmt.Sprintf("Bring up %s?", id), false)
			if err != nil {
				return sel, err
			}
			if add {
				if err := sel.AddModule(id); err != nil {
					return sel, err
				}
			}
		}
	}

	fmt.Fprintln(s.out)
	choice, err := s.prompter.ChooseOne("Specify database engine type to be used", engineOptions, engineOptions[0])
	if err != nil {
		return sel, err
	}
	engine, err := deployment.ParseEngine(choice)
	if err != nil {
		return sel, err
	}
	sel = sel.WithEngine(engine)

	username, err := s.prompter.InputValid("Specify database username", deployment.DefaultDBUsername, credentialCheck("username"))
	if err != nil {
		return sel, err
	}
	password, err := s.prompter.InputValid("Specify database password", deployment.DefaultDBPassword, credentialCheck("password"))
	if err != nil {
		return sel, err
	}
	sel.Credentials = deployment.Credentials{Username: username, Password: password}
	return sel, nil
}

// recordSetup stores the setup in history. History is informational, so a
// failure is logged and setup carries on.
func (s *Service) recordSetup(ctx context.Context, sel deployment.Selection, plan deployment.Plan) string {
	if s.history == nil {
		return ""
	}
	record := &store.SetupRecord{
		Engine:     plan.Engine,
		ConduitTag: sel.ConduitTag,
		UITag:      sel.UITag,
		Packages:   append([]catalog.PackageID(nil), plan.Order...),
		Plan:       plan,
	}
	if err := s.history.RecordSetup(ctx, record); err != nil {
		s.logger.Warn("failed to record setup history", "error", err)
		return ""
	}
	return record.ID
}

func tagCheck(published []string) func(string) (bool, string) {
	return func(v string) (bool, string) {
		return validation.ValidateTag(v, published)
	}
}

// credentialCheck validates one credential field, pairing it with the
// default for the other.
func credentialCheck(field string) func(string) (bool, string) {
	return func(v string) (bool, string) {
		user, pass := v, deployment.DefaultDBPassword
		if field == "password" {
			user, pass = deployment.DefaultDBUsername, v
		}
		bad, msg := validation.ValidateCredentials(user, pass)
		return bad == "", msg
	}
}

func joinIDs(ids []catalog.PackageID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}

// =============================================================================
// Plan Commands
// =============================================================================

// Plan returns the stored plan.
func (s *Service) Plan(ctx context.Context) (deployment.Plan, error) {
	plan, err := s.plans.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return deployment.Plan{}, ErrNoDemo
	}
	if err != nil {
		return deployment.Plan{}, fmt.Errorf("load plan: %w", err)
	}
	return plan, nil
}

// Start brings up the stored plan.
func (s *Service) Start(ctx context.Context) ([]docker.ContainerState, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	return s.deployer.StartPlan(ctx, plan)
}

// Stop stops the stored plan's containers, keeping them and the plan.
func (s *Service) Stop(ctx context.Context) error {
	plan, err := s.Plan(ctx)
	if err != nil {
		return err
	}
	return s.deployer.StopPlan(ctx, plan)
}

// Status reports the runtime state of every planned container.
func (s *Service) Status(ctx context.Context) ([]docker.ContainerState, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	return s.deployer.Status(ctx, plan)
}

// Cleanup removes the demo's containers and network, then the plan.
// Without a stored plan there is nothing to clean up.
func (s *Service) Cleanup(ctx context.Context) error {
	plan, err := s.Plan(ctx)
	if errors.Is(err, ErrNoDemo) {
		s.logger.Info("no demo deployment to clean up")
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.deployer.RemovePlan(ctx, plan); err != nil {
		return err
	}
	if err := s.plans.Delete(ctx); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}

// Export renders the stored plan as a compose file.
func (s *Service) Export(ctx context.Context, projectName string) ([]byte, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	return compose.Export(ctx, plan, projectName)
}

// History lists recorded setups, newest first.
func (s *Service) History(ctx context.Context, opts store.ListOptions) ([]store.SetupRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.ListSetups(ctx, opts)
}
