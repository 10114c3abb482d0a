package config

import (
	_ "embed"

	"github.com/xeipuuv/gojsonschema"

	"github.com/thrive-wellness/devenv/util"
)

//go:embed schema.json
var schema []byte

var schemaLoader = gojsonschema.NewBytesLoader(schema)

// Schema is the JSON schema of devenv config files.
var Schema = util.Must(gojsonschema.NewSchema(schemaLoader))
