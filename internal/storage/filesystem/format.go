package filesystem

import (
	"fmt"

	"github.com/artpar/colldex/internal/core"
	"gopkg.in/yaml.v3"
)

// Storage format types

type collectionData struct {
	Name        string        `yaml:"name"`
	Requests    []requestData `yaml:"requests"`
	Description string        `yaml:"description,omitempty"`
	Metadata    *metadataData `yaml:"metadata"`
}

type metadataData struct {
	Version   string `yaml:"version,omitempty"`
	Author    string `yaml:"author,omitempty"`
	CreatedAt string `yaml:"created_at,omitempty"`
	UpdatedAt string `yaml:"updated_at,omitempty"`
}

type requestData struct {
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body,omitempty"`
	Name    string            `yaml:"name"`
}

// EncodeCollection renders c as the YAML document SaveCollection writes.
func EncodeCollection(c core.Collection) ([]byte, error) {
	content, err := yaml.Marshal(toCollectionData(c))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collection: %w", err)
	}
	return content, nil
}

// DecodeCollection parses a collection document. A document without a
// metadata section gets default metadata.
func DecodeCollection(content []byte) (core.Collection, error) {
	var data collectionData
	if err := yaml.Unmarshal(content, &data); err != nil {
		return core.Collection{}, fmt.Errorf("failed to unmarshal collection: %w", err)
	}
	return fromCollectionData(&data)
}

// EncodeRequest renders r as the YAML document SaveRequest writes.
func EncodeRequest(r core.Request) ([]byte, error) {
	content, err := yaml.Marshal(toRequestData(r))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return content, nil
}

// DecodeRequest parses a request document without validating it.
func DecodeRequest(content []byte) (core.Request, error) {
	var data requestData
	if err := yaml.Unmarshal(content, &data); err != nil {
		return core.Request{}, fmt.Errorf("failed to unmarshal request: %w", err)
	}
	return fromRequestData(&data)
}

// Conversion functions

func toCollectionData(c core.Collection) *collectionData {
	data := &collectionData{
		Name:        c.Name,
		Requests:    make([]requestData, 0, len(c.Requests)),
		Description: c.Description,
		Metadata: &metadataData{
			Version:   c.Metadata.Version,
			Author:    c.Metadata.Author,
			CreatedAt: c.Metadata.CreatedAt,
			UpdatedAt: c.Metadata.UpdatedAt,
		},
	}

	for _, r := range c.Requests {
		data.Requests = append(data.Requests, toRequestData(r))
	}
	return data
}

func toRequestData(r core.Request) requestData {
	headers := r.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	return requestData{
		Method:  string(r.Method),
		URL:     r.URL,
		Headers: headers,
		Body:    r.Body,
		Name:    r.Name,
	}
}

func fromCollectionData(data *collectionData) (core.Collection, error) {
	c := core.NewCollection(data.Name)
	c.Description = data.Description

	if data.Metadata != nil {
		c.Metadata = core.Metadata{
			Version:   data.Metadata.Version,
			Author:    data.Metadata.Author,
			CreatedAt: data.Metadata.CreatedAt,
			UpdatedAt: data.Metadata.UpdatedAt,
		}
	}

	for i := range data.Requests {
		r, err := fromRequestData(&data.Requests[i])
		if err != nil {
			return core.Collection{}, fmt.Errorf("request %d: %w", i, err)
		}
		c.Requests = append(c.Requests, r)
	}
	return c, nil
}

func fromRequestData(data *requestData) (core.Request, error) {
	method, err := core.ParseMethod(data.Method)
	if err != nil {
		return core.Request{}, err
	}

	r := core.NewRequest(data.Name, data.URL)
	r.Method = method
	r.Body = data.Body
	for k, v := range data.Headers {
		r.Headers[k] = v
	}
	return r, nil
}
