package http

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaMoneyOp  = "money_op"
	schemaTransfer = "transfer"
	schemaClose    = "close"
	schemaSettings = "settings"
)

func loadSchemas() (map[string]*gojsonschema.Schema, error) {
	out := map[string]*gojsonschema.Schema{}
	for _, name := range []string{schemaMoneyOp, schemaTransfer, schemaClose, schemaSettings} {
		raw, err := schemaFS.ReadFile("schemas/" + name + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		out[name] = schema
	}
	return out, nil
}

// bindSchema validates the raw body against the named schema and decodes
// it into dst. It writes the error response itself and reports false.
func (s *Server) bindSchema(c *gin.Context, name string, dst any) bool {
	body, err := c.GetRawData()
	if err != nil || len(body) == 0 {
		c.JSON(400, gin.H{"error": "invalid_request", "message": "request body is required"})
		return false
	}

	res, err := s.schemas[name].Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid_request", "message": "request body is not valid JSON"})
		return false
	}
	if !res.Valid() {
		d := []string{}
		for _, e := range res.Errors() {
			d = append(d, e.String())
		}
		c.JSON(422, gin.H{"error": "schema_invalid", "details": d})
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		c.JSON(400, gin.H{"error": "invalid_request", "message": err.Error()})
		return false
	}
	return true
}
