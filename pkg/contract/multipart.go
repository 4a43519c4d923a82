package contract

import (
	"strings"

	"github.com/getmockd/contractd/pkg/pattern"
	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// MultiPartFormDataPattern describes one part of a multipart/form-data
// body. A part name ending in '?' is optional.
type MultiPartFormDataPattern interface {
	PartName() string
	Matches(part MultiPartFormDataValue, r pattern.Resolver) result.Result
	Generate(r pattern.Resolver) (MultiPartFormDataValue, error)
	NewBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[MultiPartFormDataPattern], error)
	Encompasses(other MultiPartFormDataPattern, thisR, otherR pattern.Resolver) result.Result
	withName(name string) MultiPartFormDataPattern
}

// MultiPartContentPattern is an inline part whose content matches a
// pattern.
type MultiPartContentPattern struct {
	Name        string
	Content     pattern.Pattern
	ContentType string
}

func (p *MultiPartContentPattern) PartName() string { return p.Name }

func (p *MultiPartContentPattern) withName(name string) MultiPartFormDataPattern {
	cp := *p
	cp.Name = name
	return &cp
}

func (p *MultiPartContentPattern) Matches(part MultiPartFormDataValue, r pattern.Resolver) result.Result {
	content, ok := part.(MultiPartContentValue)
	if !ok {
		return result.NewFailure(r.MismatchMessages().MismatchMessage("content part", "file part"))
	}
	if p.ContentType != "" && content.ContentType != "" && simplifiedMediaType(p.ContentType) != simplifiedMediaType(content.ContentType) {
		return result.NewFailure(r.MismatchMessages().MismatchMessage(p.ContentType, content.ContentType)).
			WithReason(result.ContentTypeMismatch).WithBreadCrumb(ContentTypeHeader)
	}
	actual := content.Content
	if s, isString := actual.(value.StringValue); isString {
		actual = parseOrString(p.Content, string(s), r)
	}
	if actual == nil {
		actual = value.StringValue("")
	}
	return r.MatchesPattern(pattern.WithoutOptionality(p.Name), p.Content, actual)
}

func (p *MultiPartContentPattern) Generate(r pattern.Resolver) (MultiPartFormDataValue, error) {
	v, err := p.Content.Generate(r)
	if err != nil {
		return nil, err
	}
	return MultiPartContentValue{Name: pattern.WithoutOptionality(p.Name), Content: v, ContentType: p.ContentType}, nil
}

func (p *MultiPartContentPattern) NewBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[MultiPartFormDataPattern], error) {
	bare := pattern.WithoutOptionality(p.Name)
	var variants []pattern.ReturnValue[pattern.Pattern]
	if row.ContainsField(bare) {
		variants = []pattern.ReturnValue[pattern.Pattern]{pattern.FromRowValue(p.Content, row.GetField(bare), r)}
	} else {
		vs, err := p.Content.NewBasedOn(row, r)
		if err != nil {
			return nil, err
		}
		variants = vs
	}
	out := make([]pattern.ReturnValue[MultiPartFormDataPattern], 0, len(variants))
	for _, v := range variants {
		out = append(out, pattern.MapReturnValue(v, func(c pattern.Pattern) MultiPartFormDataPattern {
			return &MultiPartContentPattern{Name: p.Name, Content: c, ContentType: p.ContentType}
		}))
	}
	return out, nil
}

func (p *MultiPartContentPattern) Encompasses(other MultiPartFormDataPattern, thisR, otherR pattern.Resolver) result.Result {
	o, ok := other.(*MultiPartContentPattern)
	if !ok {
		return result.NewFailure(thisR.MismatchMessages().MismatchMessage("content part", "file part"))
	}
	if p.ContentType != "" && o.ContentType != "" && simplifiedMediaType(p.ContentType) != simplifiedMediaType(o.ContentType) {
		return result.NewFailure(thisR.MismatchMessages().MismatchMessage(p.ContentType, o.ContentType)).WithBreadCrumb(ContentTypeHeader)
	}
	return p.Content.Encompasses(o.Content, thisR, otherR, nil)
}

// MultiPartFilePattern is a file upload part.
type MultiPartFilePattern struct {
	Name            string
	Filename        pattern.Pattern
	ContentType     string
	ContentEncoding string
}

func (p *MultiPartFilePattern) PartName() string { return p.Name }

func (p *MultiPartFilePattern) withName(name string) MultiPartFormDataPattern {
	cp := *p
	cp.Name = name
	return &cp
}

func (p *MultiPartFilePattern) filename() pattern.Pattern {
	if p.Filename == nil {
		return &pattern.StringPattern{}
	}
	return p.Filename
}

func (p *MultiPartFilePattern) Matches(part MultiPartFormDataValue, r pattern.Resolver) result.Result {
	file, ok := part.(MultiPartFileValue)
	if !ok {
		return result.NewFailure(r.MismatchMessages().MismatchMessage("file part", "content part"))
	}
	var failures []*result.Failure
	name := strings.TrimPrefix(file.Filename, "@")
	if f, failed := p.filename().Matches(value.StringValue(name), r).(*result.Failure); failed {
		failures = append(failures, f.WithBreadCrumb("filename"))
	}
	if p.ContentType != "" && simplifiedMediaType(p.ContentType) != simplifiedMediaType(file.ContentType) {
		failures = append(failures, result.NewFailure(r.MismatchMessages().MismatchMessage(p.ContentType, file.ContentType)).
			WithReason(result.ContentTypeMismatch).WithBreadCrumb(ContentTypeHeader))
	}
	if p.ContentEncoding != "" && !strings.EqualFold(p.ContentEncoding, file.ContentEncoding) {
		failures = append(failures, result.NewFailure(r.MismatchMessages().MismatchMessage(p.ContentEncoding, file.ContentEncoding)).
			WithBreadCrumb("Content-Encoding"))
	}
	if len(failures) == 0 {
		return result.NewSuccess()
	}
	return result.FromFailures(failures)
}

func (p *MultiPartFilePattern) Generate(r pattern.Resolver) (MultiPartFormDataValue, error) {
	v, err := p.filename().Generate(r)
	if err != nil {
		return nil, err
	}
	return MultiPartFileValue{
		Name:            pattern.WithoutOptionality(p.Name),
		Filename:        v.StringLiteral(),
		ContentType:     p.ContentType,
		ContentEncoding: p.ContentEncoding,
	}, nil
}

func (p *MultiPartFilePattern) NewBasedOn(row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[MultiPartFormDataPattern], error) {
	bare := pattern.WithoutOptionality(p.Name)
	if !row.ContainsField(bare + "_filename") {
		return []pattern.ReturnValue[MultiPartFormDataPattern]{pattern.HasValue[MultiPartFormDataPattern](p)}, nil
	}
	rv := pattern.FromRowValue(p.filename(), row.GetField(bare+"_filename"), r)
	return []pattern.ReturnValue[MultiPartFormDataPattern]{pattern.MapReturnValue(rv, func(f pattern.Pattern) MultiPartFormDataPattern {
		cp := *p
		cp.Filename = f
		return &cp
	})}, nil
}

func (p *MultiPartFilePattern) Encompasses(other MultiPartFormDataPattern, thisR, otherR pattern.Resolver) result.Result {
	o, ok := other.(*MultiPartFilePattern)
	if !ok {
		return result.NewFailure(thisR.MismatchMessages().MismatchMessage("file part", "content part"))
	}
	if p.ContentType != "" && simplifiedMediaType(p.ContentType) != simplifiedMediaType(o.ContentType) {
		return result.NewFailure(thisR.MismatchMessages().MismatchMessage(p.ContentType, o.ContentType)).WithBreadCrumb(ContentTypeHeader)
	}
	return p.filename().Encompasses(o.filename(), thisR, otherR, nil).BreadCrumb("filename")
}

func findPart(parts []MultiPartFormDataValue, name string) (MultiPartFormDataValue, bool) {
	for _, part := range parts {
		if part.PartName() == name {
			return part, true
		}
	}
	return nil, false
}

// matchMultipart checks parts against the declared part patterns.
func matchMultipart(patterns []MultiPartFormDataPattern, parts []MultiPartFormDataValue, r pattern.Resolver) result.Result {
	declared := make([]string, 0, len(patterns))
	for _, p := range patterns {
		declared = append(declared, p.PartName())
	}
	actual := make([]string, 0, len(parts))
	for _, part := range parts {
		actual = append(actual, part.PartName())
	}
	failures := r.KeyErrors(declared, actual, "part", false)
	for _, p := range patterns {
		bare := pattern.WithoutOptionality(p.PartName())
		part, ok := findPart(parts, bare)
		if !ok {
			continue
		}
		if f, failed := p.Matches(part, r).(*result.Failure); failed {
			failures = append(failures, f.WithBreadCrumb(bare))
		}
	}
	if len(failures) == 0 {
		return result.NewSuccess()
	}
	return result.FromFailures(failures).WithBreadCrumb(MultipartCrumb)
}

// multipartVariants returns part lists with every part, and with only the
// mandatory parts, each built from the parts' zipped variants.
func multipartVariants(patterns []MultiPartFormDataPattern, row pattern.Row, r pattern.Resolver) ([]pattern.ReturnValue[[]MultiPartFormDataPattern], error) {
	if len(patterns) == 0 {
		return []pattern.ReturnValue[[]MultiPartFormDataPattern]{pattern.HasValue[[]MultiPartFormDataPattern](nil)}, nil
	}
	options := make([][]pattern.ReturnValue[MultiPartFormDataPattern], len(patterns))
	for i, p := range patterns {
		vs, err := p.NewBasedOn(row, r)
		if err != nil {
			return nil, result.BreadCrumbError(result.BreadCrumbError(err, pattern.WithoutOptionality(p.PartName())), MultipartCrumb)
		}
		options[i] = vs
	}

	build := func(includeOptional bool) []pattern.ReturnValue[[]MultiPartFormDataPattern] {
		n := 0
		for _, o := range options {
			n = max(n, len(o))
		}
		var out []pattern.ReturnValue[[]MultiPartFormDataPattern]
		for i := 0; i < n; i++ {
			var parts []MultiPartFormDataPattern
			var failed *result.Failure
			for j, p := range patterns {
				bare := pattern.WithoutOptionality(p.PartName())
				if pattern.IsOptional(p.PartName()) && !includeOptional && !row.ContainsField(bare) {
					continue
				}
				if len(options[j]) == 0 {
					continue
				}
				chosen := options[j][min(i, len(options[j])-1)]
				if !chosen.OK() {
					failed = chosen.AsFailure().WithBreadCrumb(bare).WithBreadCrumb(MultipartCrumb)
					break
				}
				parts = append(parts, chosen.Value.withName(bare))
			}
			if failed != nil {
				out = append(out, pattern.HasFailure[[]MultiPartFormDataPattern](failed))
				continue
			}
			out = append(out, pattern.HasValue(parts))
		}
		return out
	}

	out := build(true)
	hasOptional := false
	for _, p := range patterns {
		if pattern.IsOptional(p.PartName()) {
			hasOptional = true
		}
	}
	if hasOptional {
		out = append(out, build(false)...)
	}
	return out, nil
}

func encompassMultipart(mine, theirs []MultiPartFormDataPattern, thisR, otherR pattern.Resolver) result.Result {
	var results []result.Result
	for _, p := range mine {
		bare := pattern.WithoutOptionality(p.PartName())
		var other MultiPartFormDataPattern
		for _, o := range theirs {
			if pattern.WithoutOptionality(o.PartName()) == bare {
				other = o
			}
		}
		if other == nil || (!pattern.IsOptional(p.PartName()) && pattern.IsOptional(other.PartName())) {
			if !pattern.IsOptional(p.PartName()) {
				results = append(results, result.MissingKeyResult("part", bare, thisR.MismatchMessages()))
			}
			continue
		}
		results = append(results, p.Encompasses(other, thisR, otherR).BreadCrumb(bare))
	}
	return result.FromResults(results).BreadCrumb(MultipartCrumb)
}
