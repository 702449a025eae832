package skos

import (
	"context"
	"fmt"
	"strings"

	"github.com/coolbeans/skosgraph/pkg/store"
	"github.com/coolbeans/skosgraph/pkg/vocab"
)

// resource holds what every typed view shares: the session and the URI.
type resource struct {
	session *Session
	uri     string
}

// URI returns the resource identifier.
func (r resource) URI() string {
	return r.uri
}

// Title returns the title in lang, reading dct:title before dc:title and
// falling back to an untagged title.
func (r resource) Title(lang string) (string, error) {
	return r.literal(lang, vocab.DCTermsTitle, vocab.DCTitle)
}

// Description returns the description in lang, reading dct:description
// before dc:description.
func (r resource) Description(lang string) (string, error) {
	return r.literal(lang, vocab.DCTermsDescription, vocab.DCDescription)
}

// SetTitle replaces the dct:title in the literal's language.
func (r resource) SetTitle(ctx context.Context, text, lang string) error {
	return r.replaceLiteral(ctx, "set_title", vocab.DCTermsTitle, text, lang)
}

// SetDescription replaces the dct:description in the literal's language.
func (r resource) SetDescription(ctx context.Context, text, lang string) error {
	return r.replaceLiteral(ctx, "set_description", vocab.DCTermsDescription, text, lang)
}

func (r resource) literal(lang string, predicates ...string) (string, error) {
	lang = strings.ToLower(lang)

	var value string
	err := r.session.View(func(reader Reader) error {
		var fallback string
		for _, predicate := range predicates {
			objects, err := reader.Objects(r.uri, predicate)
			if err != nil {
				return err
			}
			for _, object := range objects {
				if !object.IsLiteral() {
					continue
				}
				if object.Lang == lang {
					value = object.Value
					return nil
				}
				if object.Lang == "" && fallback == "" {
					fallback = object.Value
				}
			}
		}
		value = fallback
		return nil
	})
	return value, err
}

func (r resource) replaceLiteral(ctx context.Context, op, predicate, text, lang string) error {
	return r.session.mutate(ctx, op, r.uri, func(reader Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if _, ok, err := reader.Kind(r.uri); err != nil {
			return changes, err
		} else if !ok {
			return changes, ErrNotFound
		}
		if strings.TrimSpace(text) == "" {
			return changes, fmt.Errorf("%w: empty %s", ErrConstraintViolation, vocab.LocalName(predicate))
		}

		term := store.LangLiteral(text, lang)
		if lang == "" {
			term = store.Literal(text)
		}

		existing, err := reader.Objects(r.uri, predicate)
		if err != nil {
			return changes, err
		}
		for _, object := range existing {
			if object.IsLiteral() && object.Lang == term.Lang {
				changes.Retract(store.NewTriple(r.uri, predicate, object))
			}
		}
		changes.Assert(store.NewTriple(r.uri, predicate, term))
		return changes, nil
	})
}

// create asserts the type triple for a new resource.
func (s *Session) create(ctx context.Context, op, uri string, kind ResourceKind, extra func(*store.ChangeSet)) error {
	return s.mutate(ctx, op, uri, func(r Reader) (store.ChangeSet, error) {
		var changes store.ChangeSet
		if err := requireURI(uri); err != nil {
			return changes, err
		}
		if existing, ok, err := r.Kind(uri); err != nil {
			return changes, err
		} else if ok {
			return changes, fmt.Errorf("%w: %s already exists as %s", ErrConstraintViolation, uri, existing)
		}

		changes.Assert(store.NewTriple(uri, vocab.RDFType, store.IRI(kind.Class())))
		if extra != nil {
			extra(&changes)
		}
		return changes, changes.Validate()
	})
}
