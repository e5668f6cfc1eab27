package database

import (
	"testing"

	"github.com/EdwarHercules/bots-telegram/internal/domain/meter"
)

// The warehouse datasets are not uniformly keyed; the descriptor has to pin
// the filter column per brand or a query hits a column that does not exist.
func TestBrandCatalogFilterColumns(t *testing.T) {
	elster := brandCatalog[meter.BrandElster]
	if elster.alarmsByKey {
		t.Error("Elster alarms are filed under the meter number, not the clave")
	}
	if elster.universeByKey {
		t.Error("Elster universe is filed under the meter number, not the clave")
	}

	union := brandCatalog[meter.BrandUnion]
	if !union.alarmsByKey {
		t.Error("Union alarms are filed under the clave")
	}
	if !union.universeByKey {
		t.Error("Union universe is filed under the clave")
	}
	if union.lastCommByMeter {
		t.Error("Union last-communication rows match on clave only")
	}

	hexing := brandCatalog[meter.BrandHexing]
	if !hexing.alarmsByKey {
		t.Error("Hexing alarms are filed under the clave")
	}
	if !hexing.lastCommByMeter {
		t.Error("Hexing last-communication rows also match on the meter number")
	}
}

func TestBrandCatalogCoversAllBrands(t *testing.T) {
	for _, b := range meter.Brands() {
		tables, ok := brandCatalog[b]
		if !ok {
			t.Fatalf("brand %s has no dataset catalog", b)
		}
		if tables.catalog == "" || tables.alarms == "" || tables.orders == "" {
			t.Errorf("brand %s descriptor is incomplete: %+v", b, tables)
		}
	}
}
