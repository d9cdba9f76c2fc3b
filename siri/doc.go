// Package siri defines the SIRI (Service Interface for Real-time Information)
// VehicleMonitoring types used to publish animation frames.
//
// SIRI is a European standard (CEN/TS 15531) for real-time public transport information.
// Only the VehicleMonitoringDelivery (VM) module is modelled here: one VehicleActivity per
// vehicle visible in a frame. All types carry JSON tags; XML is written by the formatter
// package to keep element order under control.
package siri
