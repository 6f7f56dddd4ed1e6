package store

import (
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// Payload layout: the raw document blob under "document", the metadata
// fields flattened alongside it under their exported names.

func payloadFromRecord(rec Record) map[string]*qdrant.Value {
	meta := rec.Meta
	return map[string]*qdrant.Value{
		documentField:  stringValue(rec.Document),
		"Id":           stringValue(meta.ID),
		"Name":         stringValue(meta.Name),
		"Ingredients":  stringValue(meta.Ingredients),
		"Url":          stringValue(meta.URL),
		"ImageUrl":     stringValue(meta.ImageURL),
		"Author":       stringValue(meta.Author),
		"Ratings":      {Kind: &qdrant.Value_DoubleValue{DoubleValue: meta.Ratings}},
		"Time":         intValue(meta.Time),
		"Servings":     stringValue(meta.Servings),
		"Difficulty":   stringValue(meta.Difficulty),
		"Votes":        intValue(meta.Votes),
		"MainCategory": stringValue(meta.MainCategory),
	}
}

func recordFromPayload(payload map[string]*qdrant.Value) (Record, error) {
	if payload == nil {
		return Record{}, fmt.Errorf("recipe point has no payload")
	}

	var rec Record
	rec.Document = payload[documentField].GetStringValue()
	rec.Meta.ID = payload["Id"].GetStringValue()
	rec.Meta.Name = payload["Name"].GetStringValue()
	rec.Meta.Ingredients = payload["Ingredients"].GetStringValue()
	rec.Meta.URL = payload["Url"].GetStringValue()
	rec.Meta.ImageURL = payload["ImageUrl"].GetStringValue()
	rec.Meta.Author = payload["Author"].GetStringValue()
	rec.Meta.Ratings = payload["Ratings"].GetDoubleValue()
	rec.Meta.Time = int(payload["Time"].GetIntegerValue())
	rec.Meta.Servings = payload["Servings"].GetStringValue()
	rec.Meta.Difficulty = payload["Difficulty"].GetStringValue()
	rec.Meta.Votes = int(payload["Votes"].GetIntegerValue())
	rec.Meta.MainCategory = payload["MainCategory"].GetStringValue()
	rec.ID = rec.Meta.ID

	if rec.ID == "" {
		return Record{}, fmt.Errorf("recipe point payload is missing its Id")
	}
	return rec, nil
}

func stringValue(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func intValue(n int) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(n)}}
}
