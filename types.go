package kgclient

import (
	"github.com/kailas-cloud/kgclient/internal/domain/entity"
	"github.com/kailas-cloud/kgclient/internal/domain/schemadata"
	"github.com/kailas-cloud/kgclient/internal/domain/search/filter"
	"github.com/kailas-cloud/kgclient/internal/domain/search/mode"
	"github.com/kailas-cloud/kgclient/internal/domain/search/request"
	"github.com/kailas-cloud/kgclient/internal/domain/search/result"
	"github.com/kailas-cloud/kgclient/internal/repository"
	healthuc "github.com/kailas-cloud/kgclient/internal/usecase/health"
	"github.com/kailas-cloud/kgclient/internal/usecase/upload"
)

// Entity is an addressable graph resource.
type Entity = entity.Entity

// Kind identifies the resource collection of an entity.
type Kind = entity.Kind

// Resource kinds.
const (
	KindOrganization = entity.KindOrganization
	KindDomain       = entity.KindDomain
	KindSchema       = entity.KindSchema
	KindContext      = entity.KindContext
	KindInstance     = entity.KindInstance
)

// Entity constructors.
var (
	NewOrganization = entity.NewOrganization
	NewDomain       = entity.NewDomain
	NewSchema       = entity.NewSchema
	NewContext      = entity.NewContext
	NewInstance     = entity.NewInstance
)

// Deprecation selects active, deprecated or all resources in listings.
type Deprecation = mode.Deprecation

// Deprecation filters.
const (
	Active         = mode.Active
	DeprecatedOnly = mode.DeprecatedOnly
	AllStates      = mode.All
)

// Filter is a structured search filter expression.
type Filter = filter.Expression

// Filter constructors.
var (
	Eq  = filter.Eq
	Ne  = filter.Ne
	And = filter.And
	Or  = filter.Or
)

// ListRequest describes a listing or search.
type ListRequest = request.List

// SearchResult is one hit of a listing.
type SearchResult = result.Result

// SearchResultList is one page of hits.
type SearchResultList = result.List

// SchemaData is a schema or context template parsed from its file path.
type SchemaData = schemadata.Data

// Repositories per resource kind.
type (
	OrganizationRepository = repository.OrganizationRepo
	DomainRepository       = repository.DomainRepo
	VersionedRepository    = repository.VersionedRepo
	InstanceRepository     = repository.InstanceRepo
)

// Upload types.
type (
	SchemaOptions    = upload.SchemaOptions
	UploadResult     = upload.Result
	UploadAction     = upload.Action
	DirectoryOptions = upload.DirectoryOptions
	FileOutcome      = upload.FileOutcome
)

// Upload actions.
const (
	ActionCreated = upload.ActionCreated
	ActionUpdated = upload.ActionUpdated
	ActionSkipped = upload.ActionSkipped
)

// HealthReport aggregates health check results.
type HealthReport = healthuc.Report
