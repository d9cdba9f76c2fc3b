package formatter

import (
	"time"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/siri"
	"github.com/theoremus-urban-solutions/gtfsrt-playback/utils"
)

// BuildServiceDelivery creates a standardized ServiceDelivery wrapper
// with ResponseTimestamp and ProducerRef (codespace)
func BuildServiceDelivery(at time.Time, codespace string) siri.ServiceDelivery {
	if codespace == "" {
		codespace = "UNKNOWN"
	}

	return siri.ServiceDelivery{
		ResponseTimestamp: utils.Iso8601(at),
		ProducerRef:       codespace,
	}
}

// WrapVehicleMonitoringResponse wraps a VM delivery in a complete SIRI response
func WrapVehicleMonitoringResponse(vm siri.VehicleMonitoring, at time.Time, codespace string) *siri.Response {
	sd := BuildServiceDelivery(at, codespace)
	sd.VehicleMonitoringDelivery = []siri.VehicleMonitoring{vm}

	return &siri.Response{
		Siri: siri.ServiceDeliveryWrapper{
			ServiceDelivery: sd,
		},
	}
}
