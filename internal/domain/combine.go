package domain

import "sort"

// Data-source categories used by the combined ranking.
const (
	CategoryConnector = "Connector"
	CategoryLogSource = "Log Source"
	CategorySensor    = "Sensor"
)

const bytesPerGB = 1000 * 1000 * 1000

// Fixed display names for the single-entry sensor categories.
const (
	linuxSensorSource   = "Linux Sensor"
	windowsSensorSource = "Windows Sensor"
	networkSensorSource = "Network Sensor - Traffic"
)

// DataSourceVolume is one entry of the combined data-source ranking.
type DataSourceVolume struct {
	Category string  `json:"category"`
	Source   string  `json:"source"`
	VolumeGB float64 `json:"volume_gb"`
}

// CombineDataSources merges every volume-bearing metric family into one
// flat list of (category, source, volume in GB) sorted descending by
// volume. Ties keep the assembly order: connectors, log sources, the three
// fixed sensor categories, then security-sensor features. The combined view
// is always recomputed from the snapshot, never persisted on its own.
func (s *Snapshot) CombineDataSources() []DataSourceVolume {
	combined := make([]DataSourceVolume, 0,
		len(s.Connectors.CumulativeVolumeList)+
			len(s.LogSources.CumulativeVolumeList)+
			3+
			len(s.SecuritySensors.CumulativeVolumeByFeat))

	for _, c := range s.Connectors.CumulativeVolumeList {
		combined = append(combined, DataSourceVolume{
			Category: CategoryConnector,
			Source:   c.Name,
			VolumeGB: c.Volume / bytesPerGB,
		})
	}
	for _, l := range s.LogSources.CumulativeVolumeList {
		combined = append(combined, DataSourceVolume{
			Category: CategoryLogSource,
			Source:   l.Name,
			VolumeGB: l.Volume / bytesPerGB,
		})
	}

	combined = append(combined,
		DataSourceVolume{CategorySensor, linuxSensorSource, s.LinuxSensors.CumulativeVolume / bytesPerGB},
		DataSourceVolume{CategorySensor, windowsSensorSource, s.WindowsSensors.CumulativeVolume / bytesPerGB},
		DataSourceVolume{CategorySensor, networkSensorSource, s.NetworkSensors.CumulativeVolume / bytesPerGB},
	)

	for _, f := range s.SecuritySensors.CumulativeVolumeByFeat {
		combined = append(combined, DataSourceVolume{
			Category: CategorySensor,
			Source:   f.Name,
			VolumeGB: f.Volume / bytesPerGB,
		})
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].VolumeGB > combined[j].VolumeGB
	})

	return combined
}
