package formatter

import (
	"strconv"
	"strings"

	"github.com/theoremus-urban-solutions/gtfsrt-playback/siri"
)

// BuildXML serializes a SIRI response to XML
func (rb *responseBuilder) BuildXML(res *siri.Response) []byte {
	var b strings.Builder
	b.WriteString("<Siri xmlns=\"http://www.siri.org.uk/siri\" version=\"2.0\">")
	sd := res.Siri.ServiceDelivery
	b.WriteString("<ServiceDelivery>")
	writeElement(&b, "ResponseTimestamp", sd.ResponseTimestamp)
	writeElement(&b, "ProducerRef", sd.ProducerRef)
	for _, vm := range sd.VehicleMonitoringDelivery {
		writeVehicleMonitoringXML(&b, vm)
	}
	b.WriteString("</ServiceDelivery>")
	b.WriteString("</Siri>")
	return []byte(b.String())
}

func writeVehicleMonitoringXML(b *strings.Builder, vm siri.VehicleMonitoring) {
	b.WriteString("<VehicleMonitoringDelivery version=\"2.0\">")
	writeElement(b, "ResponseTimestamp", vm.ResponseTimestamp)
	writeElement(b, "ValidUntil", vm.ValidUntil)
	for _, va := range vm.VehicleActivity {
		b.WriteString("<VehicleActivity>")
		writeElement(b, "RecordedAtTime", va.RecordedAtTime)
		writeElement(b, "ValidUntilTime", va.ValidUntilTime)
		writeMVJXML(b, va.MonitoredVehicleJourney)
		b.WriteString("</VehicleActivity>")
	}
	b.WriteString("</VehicleMonitoringDelivery>")
}

func writeMVJXML(b *strings.Builder, mvj siri.MonitoredVehicleJourney) {
	b.WriteString("<MonitoredVehicleJourney>")
	writeElement(b, "LineRef", mvj.LineRef)
	writeElement(b, "DirectionRef", mvj.DirectionRef)
	if fr := mvj.FramedVehicleJourneyRef; fr != nil {
		b.WriteString("<FramedVehicleJourneyRef>")
		writeElement(b, "DataFrameRef", fr.DataFrameRef)
		writeElement(b, "DatedVehicleJourneyRef", fr.DatedVehicleJourneyRef)
		b.WriteString("</FramedVehicleJourneyRef>")
	}
	writeElement(b, "PublishedLineName", mvj.PublishedLineName)
	writeElement(b, "OperatorRef", mvj.OperatorRef)
	writeElement(b, "DestinationName", mvj.DestinationName)
	writeElement(b, "Monitored", strconv.FormatBool(mvj.Monitored))
	// DataSource (SIRI-VM: required)
	writeElement(b, "DataSource", mvj.DataSource)
	b.WriteString("<VehicleLocation>")
	writeElement(b, "Longitude", strconv.FormatFloat(mvj.VehicleLocation.Longitude, 'f', 6, 64))
	writeElement(b, "Latitude", strconv.FormatFloat(mvj.VehicleLocation.Latitude, 'f', 6, 64))
	b.WriteString("</VehicleLocation>")
	if mvj.Bearing != nil {
		writeElement(b, "Bearing", strconv.FormatFloat(*mvj.Bearing, 'f', 2, 64))
	}
	if mvj.Velocity != nil {
		writeElement(b, "Velocity", strconv.Itoa(*mvj.Velocity))
	}
	writeElement(b, "VehicleStatus", mvj.VehicleStatus)
	writeElement(b, "VehicleRef", mvj.VehicleRef)
	if mc := mvj.MonitoredCall; mc != nil {
		b.WriteString("<MonitoredCall>")
		writeElement(b, "StopPointRef", mc.StopPointRef)
		if mc.Order > 0 {
			writeElement(b, "Order", strconv.Itoa(mc.Order))
		}
		writeElement(b, "DestinationDisplay", mc.DestinationDisplay)
		writeElement(b, "ExpectedArrivalTime", mc.ExpectedArrivalTime)
		writeElement(b, "ExpectedDepartureTime", mc.ExpectedDepartureTime)
		b.WriteString("</MonitoredCall>")
	}
	// IsCompleteStopSequence (SIRI-VM: required, always false)
	writeElement(b, "IsCompleteStopSequence", strconv.FormatBool(mvj.IsCompleteStopSequence))
	b.WriteString("</MonitoredVehicleJourney>")
}

// writeElement writes <name>value</name>, skipping empty values
func writeElement(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString("<")
	b.WriteString(name)
	b.WriteString(">")
	b.WriteString(xmlEscape(value))
	b.WriteString("</")
	b.WriteString(name)
	b.WriteString(">")
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}
