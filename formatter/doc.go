// Package formatter serializes animation frames for clients.
//
// This package is organized into:
// - vm.go: frame to SIRI VehicleMonitoring mapping
// - wrapper.go: ServiceDelivery wrapping
// - json.go / xml.go: SIRI serialization (XML written by hand for element order)
// - geojson.go: GeoJSON FeatureCollection for map clients
// - encode.go: format selection
package formatter
