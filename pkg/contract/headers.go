package contract

import (
	"mime"
	"strings"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
	"golang.org/x/net/http/httpguts"
)

// HTTPHeadersPattern matches a set of headers. Header names are declared
// with an optional trailing '?' and compared case-insensitively.
type HTTPHeadersPattern struct {
	entries []pattern.Entry
	// ancestor, when set, limits matching to the headers it declares.
	ancestor    []pattern.Entry
	contentType string
}

// NewHTTPHeadersPattern validates the header names and returns the
// pattern. Names must be valid header field names and unique regardless of
// case. contentType, when not empty, is the media type the body is
// declared with.
func NewHTTPHeadersPattern(entries []pattern.Entry, contentType string) (*HTTPHeadersPattern, error) {
	seen := make(map[string]bool, len(entries))
	names := make([]string, 0, len(entries))
	duplicate := false
	for _, e := range entries {
		bare := pattern.WithoutOptionality(e.Key)
		if !httpguts.ValidHeaderFieldName(bare) {
			return nil, result.NewContractError("Invalid header name %q", bare)
		}
		lower := strings.ToLower(bare)
		if seen[lower] {
			duplicate = true
		}
		seen[lower] = true
		names = append(names, e.Key)
	}
	if duplicate {
		return nil, result.NewContractError("Headers are not unique: %s", strings.Join(names, ", "))
	}
	return &HTTPHeadersPattern{entries: append([]pattern.Entry(nil), entries...), contentType: contentType}, nil
}

// MustHTTPHeadersPattern is NewHTTPHeadersPattern for literals known to
// be valid.
func MustHTTPHeadersPattern(entries []pattern.Entry, contentType string) *HTTPHeadersPattern {
	p, err := NewHTTPHeadersPattern(entries, contentType)
	if err != nil {
		panic(err)
	}
	return p
}

// WithAncestor returns a copy that only looks at the headers declared by
// ancestor.
func (p *HTTPHeadersPattern) WithAncestor(ancestor *HTTPHeadersPattern) *HTTPHeadersPattern {
	cp := *p
	if ancestor != nil {
		if ancestor.entries == nil {
			cp.ancestor = []pattern.Entry{}
		} else {
			cp.ancestor = ancestor.entries
		}
	}
	return &cp
}

// Entries returns the declared headers in order.
func (p *HTTPHeadersPattern) Entries() []pattern.Entry {
	if p == nil {
		return nil
	}
	return append([]pattern.Entry(nil), p.entries...)
}

// Names returns the declared header names without optional markers.
func (p *HTTPHeadersPattern) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, pattern.WithoutOptionality(e.Key))
	}
	return out
}

// ContentType returns the declared body media type.
func (p *HTTPHeadersPattern) ContentType() string {
	if p == nil {
		return ""
	}
	return p.contentType
}

// IsEmpty reports whether no headers are declared.
func (p *HTTPHeadersPattern) IsEmpty() bool { return p == nil || len(p.entries) == 0 }

func (p *HTTPHeadersPattern) lookup(name string) (pattern.Entry, bool) {
	return findEntry(p.entries, name, true)
}

// Matches checks headers against the pattern. The Content-Type is checked
// first and, when it does not fit, is the only failure reported.
func (p *HTTPHeadersPattern) Matches(headers map[string]string, r pattern.Resolver) result.Result {
	if p == nil {
		return result.NewSuccess()
	}
	if f := p.matchContentType(headers, r); f != nil {
		return f.WithBreadCrumb(HeadersCrumb)
	}

	relevant := p.relevantHeaders(headers)
	actualNames := make([]string, 0, len(relevant))
	for k := range relevant {
		actualNames = append(actualNames, k)
	}

	keyFailures := r.WithUnexpectedKeyCheck(pattern.IgnoreUnexpectedKeys).KeyErrors(entryKeys(p.entries), actualNames, "header", true)
	for _, f := range keyFailures {
		if strings.EqualFold(f.Crumb, SOAPActionHeader) {
			return f.WithReason(result.SOAPActionMismatch).WithBreadCrumb(HeadersCrumb)
		}
	}

	failures := keyFailures
	for _, e := range p.entries {
		bare := pattern.WithoutOptionality(e.Key)
		actual, ok := lookupHeader(relevant, bare)
		if !ok {
			continue
		}
		res := r.MatchesPattern(bare, e.Pattern, parseOrString(e.Pattern, actual, r))
		f, failed := res.(*result.Failure)
		if !failed {
			continue
		}
		f = f.WithBreadCrumb(bare)
		if strings.EqualFold(bare, SOAPActionHeader) {
			f = f.WithReason(result.SOAPActionMismatch)
		}
		failures = append(failures, f)
	}

	if len(failures) == 0 {
		return result.NewSuccess()
	}
	return result.FromFailures(failures).WithBreadCrumb(HeadersCrumb)
}

func (p *HTTPHeadersPattern) matchContentType(headers map[string]string, r pattern.Resolver) *result.Failure {
	actual, present := lookupHeader(headers, ContentTypeHeader)
	if e, declared := p.lookup(ContentTypeHeader); declared {
		if !present {
			return nil
		}
		if f, failed := e.Pattern.Matches(parseOrString(e.Pattern, actual, r), r).(*result.Failure); failed {
			return f.WithReason(result.ContentTypeMismatch).WithBreadCrumb(ContentTypeHeader)
		}
		return nil
	}
	if p.contentType == "" || !present {
		return nil
	}
	if simplifiedMediaType(p.contentType) != simplifiedMediaType(actual) {
		return result.NewFailure(r.MismatchMessages().MismatchMessage(p.contentType, actual)).
			WithReason(result.ContentTypeMismatch).
			WithBreadCrumb(ContentTypeHeader)
	}
	return nil
}

// relevantHeaders drops headers the pattern should not see: those the
// ancestor does not declare, or an undeclared Content-Type.
func (p *HTTPHeadersPattern) relevantHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if p.ancestor != nil {
			if !declares(p.ancestor, k) {
				continue
			}
		} else if strings.EqualFold(k, ContentTypeHeader) {
			if _, declared := p.lookup(ContentTypeHeader); !declared {
				continue
			}
		}
		out[k] = v
	}
	return out
}

func declares(entries []pattern.Entry, name string) bool {
	_, ok := findEntry(entries, name, true)
	return ok
}

func simplifiedMediaType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

func parseOrString(p pattern.Pattern, text string, r pattern.Resolver) value.Value {
	v, err := p.Parse(text, r)
	if err != nil {
		return value.StringValue(text)
	}
	return v
}

// Generate produces a value for every declared header.
func (p *HTTPHeadersPattern) Generate(r pattern.Resolver) (map[string]string, error) {
	out := make(map[string]string)
	if p == nil {
		return out, nil
	}
	for _, e := range p.entries {
		bare := pattern.WithoutOptionality(e.Key)
		v, err := r.GenerateFor(bare, e.Pattern)
		if err != nil {
			return nil, result.BreadCrumbError(result.BreadCrumbError(err, bare), HeadersCrumb)
		}
		out[bare] = v.StringLiteral()
	}
	if _, ok := lookupHeader(out, ContentTypeHeader); !ok && p.contentType != "" {
		out[ContentTypeHeader] = p.contentType
	}
	return out, nil
}

func (p *HTTPHeadersPattern) withEntries(entries []pattern.Entry) *HTTPHeadersPattern {
	return &HTTPHeadersPattern{entries: entries, contentType: p.contentType}
}

// NewBasedOn returns the header variants for one example row. Example
// headers the contract does not declare are sent as they are.
func (p *HTTPHeadersPattern) NewBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[*HTTPHeadersPattern], error) {
	if p == nil {
		return []pattern.ReturnValue[*HTTPHeadersPattern]{pattern.HasValue[*HTTPHeadersPattern](nil)}, nil
	}
	entries := p.Entries()
	for name, val := range row.RequestHeaders {
		if strings.EqualFold(name, ContentTypeHeader) || declares(p.entries, name) {
			continue
		}
		entries = append(entries, pattern.Entry{Key: name, Pattern: pattern.NewExactValuePattern(value.StringValue(val))})
	}

	variants, err := entryVariants(entries, row, r)
	if err != nil {
		return nil, result.BreadCrumbError(err, HeadersCrumb)
	}
	out := make([]pattern.ReturnValue[*HTTPHeadersPattern], 0, len(variants))
	for _, v := range variants {
		out = append(out, pattern.MapReturnValue(v, p.withEntries).BreadCrumb(HeadersCrumb))
	}
	return out, nil
}

// NegativeBasedOn mutates one header at a time and drops each mandatory
// header in turn. Headers declared as plain strings are not mutated, since
// any header text is a valid string, and no header is mutated to null.
func (p *HTTPHeadersPattern) NegativeBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[*HTTPHeadersPattern], error) {
	if p.IsEmpty() {
		return nil, nil
	}
	keep := func(original, mutated pattern.Pattern) bool {
		if _, stringly := original.(*pattern.StringPattern); stringly {
			return false
		}
		return notNull(original, mutated)
	}
	variants, err := entryNegatives(p.entries, row, r, "header", keep)
	if err != nil {
		return nil, result.BreadCrumbError(err, HeadersCrumb)
	}
	out := make([]pattern.ReturnValue[*HTTPHeadersPattern], 0, len(variants))
	for _, v := range variants {
		out = append(out, pattern.MapReturnValue(v, p.withEntries).BreadCrumb(HeadersCrumb))
	}
	return out, nil
}

// Encompasses requires every header this pattern mandates to be mandatory
// in other, and each shared header's pattern to encompass the other's.
func (p *HTTPHeadersPattern) Encompasses(other *HTTPHeadersPattern, thisR, otherR pattern.Resolver) result.Result {
	return encompassEntries(p.Entries(), other.Entries(), "header", true, thisR, otherR).BreadCrumb(HeadersCrumb)
}
