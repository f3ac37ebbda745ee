package main

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/INLOpen/nexusjoin/combinedkey"
	"github.com/INLOpen/nexusjoin/processor"
	"github.com/INLOpen/nexusjoin/serde"
	"github.com/google/uuid"
)

// keyTypes returns the effective foreign and primary key serde names.
func (o *rootOptions) keyTypes() (fkType, pkType string) {
	fkType, pkType = o.fkType, o.pkType
	if fkType == "" {
		fkType = o.cfg.Schema.DefaultKeySerde
	}
	if pkType == "" {
		pkType = o.cfg.Schema.DefaultKeySerde
	}
	return fkType, pkType
}

// explicitSerde looks up a serde named by flag. An empty name yields nil so
// the schema falls back to the context default.
func explicitSerde(name string) (*serde.Serde[any], error) {
	if name == "" {
		return nil, nil
	}
	s, err := serde.ByName(name)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// newSchema builds and initializes a schema over untyped keys.
func (o *rootOptions) newSchema() (*combinedkey.Schema[any, any], error) {
	defaultSerde, err := o.cfg.DefaultKeySerde()
	if err != nil {
		return nil, err
	}
	fkSerde, err := explicitSerde(o.fkType)
	if err != nil {
		return nil, err
	}
	pkSerde, err := explicitSerde(o.pkType)
	if err != nil {
		return nil, err
	}

	ctx := processor.NewContext(o.cfg.ApplicationID, defaultSerde, o.logger)
	schema := combinedkey.NewSchema(
		processor.InternalTopic(o.cfg.ApplicationID, o.cfg.Schema.ForeignKeyTopic), fkSerde,
		processor.InternalTopic(o.cfg.ApplicationID, o.cfg.Schema.PrimaryKeyTopic), pkSerde,
		combinedkey.WithLogger(o.logger),
	)
	if err := schema.Init(ctx); err != nil {
		return nil, err
	}
	return schema, nil
}

// parseKey converts a command-line argument into a value of the named serde type.
func parseKey(serdeName, arg string) (any, error) {
	switch serdeName {
	case "string":
		return arg, nil
	case "int32":
		v, err := strconv.ParseInt(arg, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid int32 key %q: %w", arg, err)
		}
		return int32(v), nil
	case "int64":
		v, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int64 key %q: %w", arg, err)
		}
		return v, nil
	case "bytes":
		v, err := hex.DecodeString(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid hex key %q: %w", arg, err)
		}
		return v, nil
	case "uuid":
		v, err := uuid.Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid key %q: %w", arg, err)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %q", serde.ErrUnknownSerde, serdeName)
	}
}

// formatKey renders a decoded key the way parseKey accepts it.
func formatKey(v any) string {
	if b, ok := v.([]byte); ok {
		return hex.EncodeToString(b)
	}
	return fmt.Sprint(v)
}
