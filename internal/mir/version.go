package mir

// Schema versions, oldest first. Decode upgrades documents to CurrentVersion.
const (
	Version10      = "1.0"
	Version11      = "1.1"
	Version12      = "1.2"
	CurrentVersion = Version12
)

// knownVersions lists the migration chain in order.
var knownVersions = []string{Version10, Version11, Version12}

func versionIndex(v string) int {
	for i, known := range knownVersions {
		if known == v {
			return i
		}
	}
	return -1
}
