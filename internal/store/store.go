package store

import (
	"context"

	"github.com/bidwell-group/tender-cli/internal/model"
)

// Store defines the persistence interface for tender comparison data.
// Entity lookups return (nil, nil) when no row exists; callers decide
// whether absence is an error. Match writes are atomic and conditional
// so concurrent settlement attempts resolve to last-writer-wins.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, name, clientName string) (*model.Project, error)
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	ListProjects(ctx context.Context) ([]model.Project, error)

	// Sections
	UpsertSections(ctx context.Context, sections []model.Section) error
	ListSections(ctx context.Context, projectID string) ([]model.Section, error)

	// ITT items. Replace swaps the project's full bill atomically on
	// re-extraction.
	ReplaceITTItems(ctx context.Context, projectID string, items []model.ITTItem) error
	ListITTItems(ctx context.Context, projectID string) ([]model.ITTItem, error)
	GetITTItem(ctx context.Context, projectID, itemID string) (*model.ITTItem, error)

	// Response items
	InsertResponseItems(ctx context.Context, items []model.ResponseItem) error
	ListResponseItems(ctx context.Context, projectID string) ([]model.ResponseItem, error)
	GetResponseItem(ctx context.Context, projectID, itemID string) (*model.ResponseItem, error)

	// Contractors
	InsertContractor(ctx context.Context, c model.Contractor) error
	GetContractorByKey(ctx context.Context, projectID, nameKey string) (*model.Contractor, error)
	ListContractors(ctx context.Context, projectID string) ([]model.Contractor, error)

	// Matches. InsertMatch surfaces ErrConflict on a duplicate id;
	// InsertSuggestions skips duplicates and reports how many landed.
	// SettleMatch performs the conditional suggested->terminal update and
	// reports whether a row changed.
	InsertMatch(ctx context.Context, m model.Match) error
	InsertSuggestions(ctx context.Context, matches []model.Match) (int, error)
	SettleMatch(ctx context.Context, projectID, matchID string, status model.MatchStatus, comment string) (bool, error)
	GetMatch(ctx context.Context, projectID, matchID string) (*model.Match, error)
	ListMatches(ctx context.Context, projectID string) ([]model.Match, error)

	// Exceptions
	InsertExceptions(ctx context.Context, exceptions []model.Exception) error
	AttachExceptionSection(ctx context.Context, projectID, exceptionID, sectionID string) error
	ListExceptions(ctx context.Context, projectID string) ([]model.Exception, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
