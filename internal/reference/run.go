package reference

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/slexa/internal/core"
)

// RunDocument is the per-deployment base configuration copied into every
// published row. A nil Locations map or an absent Template key means the
// value was not configured.
type RunDocument struct {
	Locations map[string]string // location code -> warehouse address
	Template  map[string]string // choice, access, auction_type
}

type runYAML struct {
	TemplateData struct {
		WarehouseAddress yaml.Node `yaml:"warehouse_address"`
		Choice           *scalar   `yaml:"choice"`
		Access           *scalar   `yaml:"access"`
		AuctionType      *scalar   `yaml:"auction_type"`
	} `yaml:"template_data"`
}

// LoadRunDocument reads the template_data section of the run document.
func LoadRunDocument(path string) (RunDocument, error) {
	var raw runYAML
	if err := decodeFile(path, &raw); err != nil {
		return RunDocument{}, fmt.Errorf("run document: %w", err)
	}

	locations, err := stringMap(&raw.TemplateData.WarehouseAddress)
	if err != nil {
		return RunDocument{}, fmt.Errorf("run document %s: warehouse_address: %w", path, err)
	}

	doc := RunDocument{Locations: locations, Template: make(map[string]string)}
	for col, v := range map[string]*scalar{
		core.ColChoice:      raw.TemplateData.Choice,
		core.ColAccess:      raw.TemplateData.Access,
		core.ColAuctionType: raw.TemplateData.AuctionType,
	} {
		if v != nil {
			doc.Template[col] = string(*v)
		}
	}
	return doc, nil
}
