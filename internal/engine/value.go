package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/twinsync/internal/backend"
	"github.com/roach88/twinsync/internal/model"
)

// MapValue makes locator the value source of elem, a Property, Range or
// MultiLanguageProperty. The element's tree need not be bound.
func (e *Engine) MapValue(elem model.Referable, locator string) error {
	if _, _, err := e.registry.Resolve(locator); err != nil {
		return err
	}
	return e.values.Map(elem, locator)
}

// UnmapValue forgets the value source of elem.
func (e *Engine) UnmapValue(elem model.Referable) error {
	return e.values.Unmap(elem)
}

// ValueSource returns the locator mapped to elem.
func (e *Engine) ValueSource(elem model.Referable) (string, error) {
	return e.values.Source(elem)
}

// CommitValue writes the value of elem, and nothing else, to its value
// source. The bind state of elem's tree is left alone.
func (e *Engine) CommitValue(ctx context.Context, elem model.Referable) (err error) {
	locator, id, path, err := e.valueTarget(elem)
	if err != nil {
		return err
	}
	defer func() { e.emit(OpCommitValue, locator, id, path, err) }()
	e.logger.Debug("commit value", "locator", locator, "id", id, "path", joinPath(path))

	ser, err := e.valueSerializer()
	if err != nil {
		return err
	}
	adapter, identifier, err := e.registry.Resolve(locator)
	if err != nil {
		return err
	}
	data, err := ser.EncodeValue(elem)
	if err != nil {
		return &backend.SerializationError{Op: "encode value", Err: err}
	}
	if err := adapter.Put(ctx, identifier, data); err != nil {
		return &backend.BackendUnavailableError{Locator: locator, Op: "put", Err: err}
	}
	return nil
}

// FetchValue reads the value of elem from its value source and sets it
// through elem's setters. A bound tree holding elem becomes dirty, since
// it now differs from its stored document. elem is unchanged on error.
func (e *Engine) FetchValue(ctx context.Context, elem model.Referable) (err error) {
	locator, id, path, err := e.valueTarget(elem)
	if err != nil {
		return err
	}
	defer func() { e.emit(OpFetchValue, locator, id, path, err) }()
	e.logger.Debug("fetch value", "locator", locator, "id", id, "path", joinPath(path))

	ser, err := e.valueSerializer()
	if err != nil {
		return err
	}
	adapter, identifier, err := e.registry.Resolve(locator)
	if err != nil {
		return err
	}
	data, err := adapter.Get(ctx, identifier)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return &model.KeyNotFoundError{Key: locator, Message: "nothing stored in backend"}
		}
		return &backend.BackendUnavailableError{Locator: locator, Op: "get", Err: err}
	}
	remote, err := ser.DecodeValue(elem, data)
	if err != nil {
		return &backend.SerializationError{Op: "decode value", Err: err}
	}
	return model.CopyValue(elem, remote)
}

// valueTarget returns the value source of elem together with the id of
// its Identifiable root and the path below it, for events and logs.
func (e *Engine) valueTarget(elem model.Referable) (locator, id string, path []string, err error) {
	locator, err = e.values.Source(elem)
	if err != nil {
		return "", "", nil, err
	}
	ref, err := model.ModelReferenceFrom(elem)
	if err != nil {
		return "", "", nil, err
	}
	keys := ref.Keys()
	for _, k := range keys[1:] {
		path = append(path, k.Value)
	}
	return locator, keys[0].Value, path, nil
}

func (e *Engine) valueSerializer() (backend.ValueSerializer, error) {
	ser, ok := e.serializer.(backend.ValueSerializer)
	if !ok {
		return nil, &backend.SerializationError{
			Op:  "value",
			Err: fmt.Errorf("%T cannot encode single values: %w", e.serializer, errors.ErrUnsupported),
		}
	}
	return ser, nil
}
