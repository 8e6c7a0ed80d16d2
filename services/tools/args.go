// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tools

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/toolerr"
	"github.com/mdwillman/avalogica-weather-mcp/pkg/validation"
)

// =============================================================================
// Typed Arguments
// =============================================================================

// WebSearchArgs are the arguments of brave_web_search.
type WebSearchArgs struct {
	Query  string `json:"query" validate:"required,max=400"`
	Count  int    `json:"count" validate:"min=1,max=20"`
	Offset int    `json:"offset" validate:"min=0,max=9"`
}

// LocalSearchArgs are the arguments of brave_local_search.
type LocalSearchArgs struct {
	Query string `json:"query" validate:"required,max=400"`
	Count int    `json:"count" validate:"min=1,max=20"`
}

// ForecastArgs are the arguments of get_forecast.
type ForecastArgs struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Days      int     `json:"days" validate:"min=1,max=7"`
}

// TechUpdateArgs are the arguments of get_tech_update.
type TechUpdateArgs struct {
	Topic string `json:"topic" validate:"required,max=100"`
}

// argsValidate checks ranges after type conversion. Field names in messages
// come from the json tags.
var argsValidate = newArgsValidator()

func newArgsValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// =============================================================================
// Parsers
// =============================================================================

// ParseWebSearchArgs converts and validates a brave_web_search argument object.
func ParseWebSearchArgs(args map[string]any) (WebSearchArgs, error) {
	if args == nil {
		return WebSearchArgs{}, errNotObject("query: string")
	}
	query, err := requiredQuery(args)
	if err != nil {
		return WebSearchArgs{}, err
	}
	count, err := optionalInt(args, "count", 10)
	if err != nil {
		return WebSearchArgs{}, err
	}
	offset, err := optionalInt(args, "offset", 0)
	if err != nil {
		return WebSearchArgs{}, err
	}
	out := WebSearchArgs{Query: query, Count: count, Offset: offset}
	return out, validateArgs(out)
}

// ParseLocalSearchArgs converts and validates a brave_local_search argument object.
func ParseLocalSearchArgs(args map[string]any) (LocalSearchArgs, error) {
	if args == nil {
		return LocalSearchArgs{}, errNotObject("query: string")
	}
	query, err := requiredQuery(args)
	if err != nil {
		return LocalSearchArgs{}, err
	}
	count, err := optionalInt(args, "count", 5)
	if err != nil {
		return LocalSearchArgs{}, err
	}
	out := LocalSearchArgs{Query: query, Count: count}
	return out, validateArgs(out)
}

// ParseForecastArgs converts and validates a get_forecast argument object.
// defaultDays fills a missing days field.
func ParseForecastArgs(args map[string]any, defaultDays int) (ForecastArgs, error) {
	if args == nil {
		return ForecastArgs{}, errNotObject("latitude: number, longitude: number")
	}
	lat, err := requiredNumber(args, "latitude")
	if err != nil {
		return ForecastArgs{}, err
	}
	lon, err := requiredNumber(args, "longitude")
	if err != nil {
		return ForecastArgs{}, err
	}
	if err := validation.ValidateCoordinates(lat, lon); err != nil {
		return ForecastArgs{}, toolerr.InvalidArgument("%v", err)
	}
	days, err := optionalInt(args, "days", defaultDays)
	if err != nil {
		return ForecastArgs{}, err
	}
	out := ForecastArgs{Latitude: lat, Longitude: lon, Days: days}
	return out, validateArgs(out)
}

// ParseTechUpdateArgs converts and validates a get_tech_update argument object.
func ParseTechUpdateArgs(args map[string]any) (TechUpdateArgs, error) {
	if args == nil {
		return TechUpdateArgs{}, errNotObject("topic: string")
	}
	raw, ok := args["topic"]
	topic, isString := raw.(string)
	if !ok || !isString {
		return TechUpdateArgs{}, toolerr.InvalidArgument("topic must be a string")
	}
	out := TechUpdateArgs{Topic: strings.TrimSpace(topic)}
	return out, validateArgs(out)
}

// =============================================================================
// Helpers
// =============================================================================

func errNotObject(shape string) error {
	return toolerr.InvalidArgument("arguments must be an object {%s}", shape)
}

func requiredQuery(args map[string]any) (string, error) {
	raw, ok := args["query"]
	query, isString := raw.(string)
	if !ok || !isString {
		return "", toolerr.InvalidArgument("query must be a string")
	}
	cleaned, err := validation.SanitizeQuery(query)
	if err != nil {
		return "", toolerr.InvalidArgument("%v", err)
	}
	return cleaned, nil
}

func requiredNumber(args map[string]any, key string) (float64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return 0, toolerr.InvalidArgument("%s is required and must be a number", key)
	}
	v, ok := toFloat(raw)
	if !ok {
		return 0, toolerr.InvalidArgument("%s must be a number, got %T", key, raw)
	}
	return v, nil
}

func optionalInt(args map[string]any, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	v, ok := toFloat(raw)
	if !ok {
		return 0, toolerr.InvalidArgument("%s must be an integer, got %T", key, raw)
	}
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, toolerr.InvalidArgument("%s must be an integer, got %v", key, v)
	}
	return int(v), nil
}

// toFloat accepts the numeric types produced by encoding/json (with or
// without UseNumber) and by Go callers building argument maps directly.
func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// validateArgs runs the struct tags and renders the first failure.
func validateArgs(v any) error {
	err := argsValidate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return toolerr.InvalidArgument("%v", err)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return toolerr.InvalidArgument("%s is required", fe.Field())
	case "min", "gte":
		return toolerr.InvalidArgument("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return toolerr.InvalidArgument("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return toolerr.InvalidArgument("%s must be at most %s, got %v", fe.Field(), fe.Param(), fe.Value())
	default:
		return toolerr.InvalidArgument("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
