package resource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dirscim/gateway/filter"
	"github.com/dirscim/gateway/filter/expr"
	"github.com/dirscim/gateway/ldap"
	"github.com/dirscim/gateway/mapper"
	"github.com/dirscim/gateway/object"
	"github.com/dirscim/gateway/spec"
)

// PatchOp is one of the three PatchOperation verbs this engine supports.
// Per spec.md §13's supplemented PATCH subset, only whole-attribute
// targets are accepted; "add" and "replace" carry the same semantics
// (AddAttribute replaces wholesale), matching the data model's
// "add replaces" invariant.
type PatchOp string

const (
	PatchAdd     PatchOp = "add"
	PatchReplace PatchOp = "replace"
	PatchRemove  PatchOp = "remove"
)

// PatchOperation targets a single top-level (optionally extension-
// schema-qualified) attribute path. Value is ignored for PatchRemove.
type PatchOperation struct {
	Op    PatchOp
	Path  string
	Value *object.SCIMAttribute
}

// QueryResult is the paginated outcome of Service.Query.
type QueryResult struct {
	Resources    []*object.SCIMObject
	TotalResults int
	StartIndex   int
}

// Service implements the gateway's resource-level contract (C7): it
// drives one configured Mapper against a DirectoryClient, translating
// every SCIM REST resource operation into the corresponding LDAP
// round trip, per spec.md §4 and §7's error handling table.
type Service struct {
	Registry  *spec.Registry
	Resources map[string]*Mapper // endpoint name (lower-cased key managed by lookup), built by config.Load
	Directory ldap.DirectoryClient
	SPConfig  spec.ServiceProviderConfig
	Logger    *zerolog.Logger
}

// mapperFor resolves endpoint to its configured Mapper, or an
// invalidResource error if the endpoint is not served by this gateway.
func (s *Service) mapperFor(endpoint string) (*Mapper, error) {
	m := s.Resources[strings.ToLower(endpoint)]
	if m == nil {
		return nil, fmt.Errorf("%w: unknown resource endpoint %q", spec.ErrInvalidResource, endpoint)
	}
	return m, nil
}

// idLookup resolves a SCIM id to its backing LDAP entry by searching for
// the value of the mapper-owned attribute backing "id" (e.g. "uid"),
// AND-ed with the resource's SearchFilter. Returns a nil entry, not an
// error, when no entry matches.
func (s *Service) idLookup(ctx context.Context, m *Mapper, id string) (*ldap.Entry, error) {
	idMapper := m.resolve(m.SchemaURN, "id")
	if idMapper == nil {
		return nil, fmt.Errorf("%w: resource %q has no mapped id attribute", spec.ErrServerError, m.ResourceName)
	}
	types := idMapper.LDAPAttributeTypes()
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: id attribute mapper for %q declares no backing LDAP attribute", spec.ErrServerError, m.ResourceName)
	}

	frag := fmt.Sprintf("(%s=%s)", types[0], mapper.LDAPEscape(id))
	searchFilter := frag
	if m.SearchFilter != "" {
		searchFilter = fmt.Sprintf("(&%s%s)", m.SearchFilter, frag)
	}

	entries, err := s.Directory.Search(ctx, m.SearchBaseDN, m.SearchScope, searchFilter, m.ToLDAPAttributeTypes(object.AllAttributes()), nil)
	if err != nil {
		return nil, s.mapDirectoryError(err)
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[0], nil
}

// Create translates scim into a new LDAP entry and adds it, returning
// the created resource as the directory reflects it back.
func (s *Service) Create(ctx context.Context, endpoint string, scim *object.SCIMObject, query object.QueryAttributes) (*object.SCIMObject, error) {
	m, err := s.mapperFor(endpoint)
	if err != nil {
		return nil, err
	}

	entry, err := m.ToLDAPEntry(scim)
	if err != nil {
		return nil, err
	}

	s.logDebug(endpoint, "create", entry.DN, nil)
	if err := s.Directory.Add(ctx, entry); err != nil {
		return nil, s.errf(endpoint, "create", entry.DN, err)
	}

	obj, err := m.ToSCIMObject(ctx, entry, query, s.Directory)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: created entry does not match resource %q's search filter", spec.ErrServerError, endpoint)
	}
	return obj, nil
}

// Get returns the resource identified by id, or spec.ErrNotFound if it
// does not exist or does not belong to this resource.
func (s *Service) Get(ctx context.Context, endpoint, id string, query object.QueryAttributes) (*object.SCIMObject, error) {
	m, err := s.mapperFor(endpoint)
	if err != nil {
		return nil, err
	}

	entry, err := s.idLookup(ctx, m, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: no %s resource with id %q", spec.ErrNotFound, endpoint, id)
	}

	obj, err := m.ToSCIMObject(ctx, entry, query, s.Directory)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: no %s resource with id %q", spec.ErrNotFound, endpoint, id)
	}
	return obj, nil
}

// Query runs scimFilter (server-translated as far as possible, with any
// untranslatable remainder re-checked in memory per spec.md §4.6),
// orders by sort when given, and returns one page of results bounded by
// page and the service provider's MaxResults.
func (s *Service) Query(ctx context.Context, endpoint, scimFilter string, sort *object.SortParameters, page object.PageParameters, query object.QueryAttributes) (QueryResult, error) {
	m, err := s.mapperFor(endpoint)
	if err != nil {
		return QueryResult{}, err
	}

	if scimFilter != "" && !s.SPConfig.FilterSupported {
		return QueryResult{}, fmt.Errorf("%w: filtering is not supported", spec.ErrInvalidFilter)
	}
	if sort != nil && !s.SPConfig.SortSupported {
		return QueryResult{}, fmt.Errorf("%w: sorting is not supported", spec.ErrInvalidSort)
	}

	ldapFilter, tree, partial, err := m.ToLDAPFilter(scimFilter)
	if err != nil {
		return QueryResult{}, err
	}

	var sortControl *ldap.SortControl
	if sort != nil {
		sortControl, err = m.ToLDAPSortAttribute(sort.Path)
		if err != nil {
			return QueryResult{}, err
		}
		sortControl.Descending = !sort.Ascending
	}

	attrs := m.ToLDAPAttributeTypes(query)
	s.logDebug(endpoint, "search", m.SearchBaseDN, map[string]interface{}{"filter": ldapFilter})
	entries, err := s.Directory.Search(ctx, m.SearchBaseDN, m.SearchScope, ldapFilter, attrs, sortControl)
	if err != nil {
		return QueryResult{}, s.errf(endpoint, "search", m.SearchBaseDN, err)
	}

	var results []*object.SCIMObject
	for _, entry := range entries {
		obj, err := m.ToSCIMObject(ctx, entry, query, s.Directory)
		if err != nil {
			return QueryResult{}, err
		}
		if obj == nil {
			continue
		}
		if partial && tree != nil {
			ok, err := filter.Evaluate(s.Registry, obj, tree)
			if err != nil {
				return QueryResult{}, err
			}
			if !ok {
				continue
			}
		}
		results = append(results, obj)
	}

	total := len(results)
	start := page.StartIndex
	if start < 1 {
		start = 1
	}
	maxResults := s.SPConfig.MaxResults
	count := page.Count
	if count <= 0 || (maxResults > 0 && count > maxResults) {
		count = maxResults
	}
	if count <= 0 {
		count = total
	}

	var pageItems []*object.SCIMObject
	if start <= total {
		end := start - 1 + count
		if end > total {
			end = total
		}
		pageItems = results[start-1 : end]
	}

	return QueryResult{Resources: pageItems, TotalResults: total, StartIndex: start}, nil
}

// Replace overwrites the resource identified by id with scim, computed
// as a diff against the entry's current state. ifMatchVersion, when
// non-empty, must equal Version(currentEntry) or the call fails with
// spec.ErrPreconditionFailed (spec.md §13's optimistic concurrency
// supplement).
func (s *Service) Replace(ctx context.Context, endpoint, id string, scim *object.SCIMObject, ifMatchVersion string, query object.QueryAttributes) (*object.SCIMObject, error) {
	m, err := s.mapperFor(endpoint)
	if err != nil {
		return nil, err
	}

	current, err := s.idLookup(ctx, m, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: no %s resource with id %q", spec.ErrNotFound, endpoint, id)
	}
	if ifMatchVersion != "" && ifMatchVersion != m.Version(current) {
		return nil, fmt.Errorf("%w: %s resource %q has been modified since it was retrieved", spec.ErrPreconditionFailed, endpoint, id)
	}

	target, err := m.ToLDAPEntry(scim)
	if err != nil {
		return nil, err
	}

	mods := m.ToLDAPModifications(current, target)
	if len(mods) > 0 {
		s.logDebug(endpoint, "modify", current.DN, map[string]interface{}{"mods": len(mods)})
		if err := s.Directory.Modify(ctx, current.DN, mods); err != nil {
			return nil, s.errf(endpoint, "modify", current.DN, err)
		}
	}

	return s.reread(ctx, m, current.DN, query, endpoint)
}

// Patch applies ops to the current resource, diffing the merged result
// against the directory. Only whole-attribute add/replace/remove is
// supported, per spec.md §13.
func (s *Service) Patch(ctx context.Context, endpoint, id string, ops []PatchOperation, query object.QueryAttributes) (*object.SCIMObject, error) {
	m, err := s.mapperFor(endpoint)
	if err != nil {
		return nil, err
	}
	if !s.SPConfig.PatchSupported {
		return nil, fmt.Errorf("%w: patch is not supported", spec.ErrInvalidResource)
	}

	current, err := s.idLookup(ctx, m, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: no %s resource with id %q", spec.ErrNotFound, endpoint, id)
	}

	currentObj, err := m.ToSCIMObject(ctx, current, object.AllAttributes(), s.Directory)
	if err != nil {
		return nil, err
	}
	if currentObj == nil {
		return nil, fmt.Errorf("%w: no %s resource with id %q", spec.ErrNotFound, endpoint, id)
	}

	merged := object.NewSCIMObject()
	currentObj.ForEachAttribute("", func(attr *object.SCIMAttribute) {
		merged.AddAttribute(attr)
	})
	for _, op := range ops {
		schema, name, subName, err := splitPatchPath(m.SchemaURN, op.Path)
		if err != nil {
			return nil, err
		}
		if subName != "" {
			return nil, fmt.Errorf("%w: patch path %q targets a sub-attribute, which is not supported", spec.ErrInvalidResource, op.Path)
		}
		switch op.Op {
		case PatchRemove:
			merged.RemoveAttribute(schema, name)
		case PatchAdd, PatchReplace:
			if op.Value == nil {
				return nil, fmt.Errorf("%w: patch path %q requires a value", spec.ErrInvalidResource, op.Path)
			}
			merged.AddAttribute(op.Value)
		default:
			return nil, fmt.Errorf("%w: unsupported patch operation %q", spec.ErrInvalidResource, op.Op)
		}
	}

	target, err := m.ToLDAPEntry(merged)
	if err != nil {
		return nil, err
	}

	mods := m.ToLDAPModifications(current, target)
	if len(mods) > 0 {
		s.logDebug(endpoint, "modify", current.DN, map[string]interface{}{"mods": len(mods)})
		if err := s.Directory.Modify(ctx, current.DN, mods); err != nil {
			return nil, s.errf(endpoint, "modify", current.DN, err)
		}
	}

	return s.reread(ctx, m, current.DN, query, endpoint)
}

// Delete removes the resource identified by id.
func (s *Service) Delete(ctx context.Context, endpoint, id string) error {
	m, err := s.mapperFor(endpoint)
	if err != nil {
		return err
	}

	current, err := s.idLookup(ctx, m, id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("%w: no %s resource with id %q", spec.ErrNotFound, endpoint, id)
	}

	s.logDebug(endpoint, "delete", current.DN, nil)
	if err := s.Directory.Delete(ctx, current.DN); err != nil {
		return s.errf(endpoint, "delete", current.DN, err)
	}
	return nil
}

// reread fetches dn fresh after a write and rebuilds its SCIMObject, so
// Replace and Patch reflect directory-computed attributes (e.g. a
// modifyTimestamp bump) in their response.
func (s *Service) reread(ctx context.Context, m *Mapper, dn string, query object.QueryAttributes, endpoint string) (*object.SCIMObject, error) {
	entry, err := s.Directory.Read(ctx, dn, m.ToLDAPAttributeTypes(object.AllAttributes()))
	if err != nil {
		return nil, s.errf(endpoint, "read", dn, err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: entry %s vanished after modification", spec.ErrServerError, dn)
	}
	obj, err := m.ToSCIMObject(ctx, entry, query, s.Directory)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: entry %s no longer matches resource %q's search filter", spec.ErrServerError, dn, endpoint)
	}
	return obj, nil
}

// splitPatchPath parses a patch path (e.g. "emails" or
// "urn:...:extension:enterprise:2.0:User:employeeNumber") into its
// schema/name/subName triple via the filter grammar's path syntax,
// defaulting the schema to defaultSchema when unqualified.
func splitPatchPath(defaultSchema, path string) (schema, name, subName string, err error) {
	schema, name, subName, err = expr.SplitPath(path)
	if err != nil {
		return "", "", "", fmt.Errorf("%w: %v", spec.ErrInvalidResource, err)
	}
	if schema == "" {
		schema = defaultSchema
	}
	return schema, name, subName, nil
}

// mapDirectoryError wraps a DirectoryClient failure as the corresponding
// spec.Error kind per spec.md §7's table. Context cancellation and
// deadline errors are returned unchanged so callers can distinguish them
// from genuine directory failures.
func (s *Service) mapDirectoryError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var de *ldap.DirectoryError
	if errors.As(err, &de) {
		switch de.ResultCode {
		case ldap.ResultNoSuchObject:
			return fmt.Errorf("%w: %s", spec.ErrNotFound, de.Message)
		case ldap.ResultEntryAlreadyExists:
			return fmt.Errorf("%w: %s", spec.ErrConflict, de.Message)
		case ldap.ResultInvalidCredentials:
			return fmt.Errorf("%w: %s", spec.ErrUnauthorized, de.Message)
		case ldap.ResultInsufficientRights:
			return fmt.Errorf("%w: %s", spec.ErrForbidden, de.Message)
		case ldap.ResultBusy, ldap.ResultUnavailable:
			return fmt.Errorf("%w: %s", spec.ErrServiceUnavailable, de.Message)
		default:
			return fmt.Errorf("%w: %s", spec.ErrServerError, de.Message)
		}
	}
	return fmt.Errorf("%w: %v", spec.ErrServiceUnavailable, err)
}

func (s *Service) errf(endpoint, op, dn string, err error) error {
	mapped := s.mapDirectoryError(err)
	if s.Logger != nil {
		s.Logger.Err(err).Fields(map[string]interface{}{
			"resource": endpoint,
			"op":       op,
			"dn":       dn,
		}).Msg("directory operation failed")
	}
	return mapped
}

func (s *Service) logDebug(endpoint, op, dn string, fields map[string]interface{}) {
	if s.Logger == nil {
		return
	}
	evt := s.Logger.Debug().Str("resource", endpoint).Str("op", op).Str("dn", dn)
	if fields != nil {
		evt = evt.Fields(fields)
	}
	evt.Msg("directory round trip")
}
