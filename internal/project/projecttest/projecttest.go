// Package projecttest builds realistic project archives for tests: a
// manifest, an imported "Layers" map with polygon, line and point layers, and
// a layout whose map frame shows that map.
package projecttest

import (
	"testing"

	"github.com/papapumpkin/aprx/internal/archive/archivetest"
)

// Files is an archive's content by internal path.
type Files map[string]string

// Fixture describes the variable parts of the standard project.
type Fixture struct {
	LakeFill     [4]int
	LakeStroke   [4]int
	TownColor    [4]int
	RoadWidth    float64
	LabelsShown  bool
	Camera       [3]float64 // x, y, scale
	ExtraMaps    []string   // names of additional empty maps
	OmitLayout   bool
	MapName      string
	BrokenLayers bool // reference a layer document that does not exist
}

// Default returns the reference state the tests compare against.
func Default() Fixture {
	return Fixture{
		LakeFill:    [4]int{156, 156, 156, 100},
		LakeStroke:  [4]int{255, 190, 190, 100},
		TownColor:   [4]int{133, 0, 44, 100},
		RoadWidth:   1.5,
		LabelsShown: true,
		Camera:      [3]float64{2600000, 1200000, 250000},
		MapName:     "Layers",
	}
}

func color(c [4]int) map[string]any {
	return map[string]any{"type": "CIMRGBColor", "values": []int{c[0], c[1], c[2], c[3]}}
}

func renderer(layers ...map[string]any) map[string]any {
	return map[string]any{
		"type": "CIMSimpleRenderer",
		"symbol": map[string]any{
			"type":   "CIMSymbolReference",
			"symbol": map[string]any{"type": "CIMPolygonSymbol", "symbolLayers": layers},
		},
	}
}

// Files renders the fixture as archive entries.
func (f Fixture) Files(t testing.TB) Files {
	t.Helper()

	items := []map[string]any{
		{"iD": "1", "itemType": "Map", "name": f.MapName, "catalogPath": "CIMPATH=map/map.json"},
		{"iD": "3", "itemType": "ColorPalette", "name": "ArcGIS Colors", "catalogPath": "ArcGIS Colors"},
		{"iD": "4", "itemType": "Toolbox", "name": "TP1", "catalogPath": `C:\TP1\TP1.tbx`},
	}
	if !f.OmitLayout {
		items = append(items, map[string]any{"iD": "2", "itemType": "Layout", "name": "Layout", "catalogPath": "CIMPATH=layout/layout.json"})
	}

	files := Files{}
	for i, name := range f.ExtraMaps {
		p := "map/extra" + string(rune('a'+i)) + ".json"
		items = append(items, map[string]any{"iD": "x" + string(rune('a'+i)), "itemType": "Map", "name": name, "catalogPath": "CIMPATH=" + p})
		files[p] = archivetest.JSON(t, map[string]any{"type": "CIMMap", "name": name, "layers": []string{}})
	}
	files["GISProject.json"] = archivetest.JSON(t, map[string]any{"projectItems": items})

	layerRefs := []any{
		"CIMPATH=map/towns.json",
		"CIMPATH=map/roads.json",
		"CIMPATH=map/lakes.json",
		"CIMPATH=map/cantons.json",
		"CIMPATH=map/DEM.json",
		"CIMPATH=map/hillshadech.json",
		"CIMPATH=map/towns2.json",
		"Basemap reference",
	}
	if f.BrokenLayers {
		layerRefs = append(layerRefs, "CIMPATH=map/missing.json")
	}
	files["map/map.json"] = archivetest.JSON(t, map[string]any{"type": "CIMMap", "name": f.MapName, "layers": layerRefs})

	files["map/lakes.json"] = archivetest.JSON(t, map[string]any{
		"type": "CIMFeatureLayer",
		"name": "Lakes",
		"renderer": renderer(
			map[string]any{"type": "CIMSolidStroke", "enable": true, "width": 2, "color": color(f.LakeStroke)},
			map[string]any{"type": "CIMSolidFill", "enable": false, "color": color([4]int{0, 0, 255, 100})},
			map[string]any{"type": "CIMSolidFill", "enable": true, "color": color(f.LakeFill)},
		),
		"labelVisibility": f.LabelsShown,
		"labelClasses": []any{map[string]any{
			"expression":       "$feature.NAME",
			"expressionEngine": "Arcade",
			"textSymbol": map[string]any{
				"type":   "CIMSymbolReference",
				"symbol": map[string]any{"type": "CIMTextSymbol", "fontFamilyName": "Tahoma", "fontStyleName": "Italic", "height": 9},
			},
		}},
	})
	files["map/roads.json"] = archivetest.JSON(t, map[string]any{
		"type": "CIMFeatureLayer",
		"name": "Roads",
		"renderer": renderer(
			map[string]any{"type": "CIMSolidStroke", "enable": true, "width": f.RoadWidth, "color": color([4]int{110, 110, 110, 100})},
		),
	})
	files["map/towns.json"] = archivetest.JSON(t, map[string]any{
		"type": "CIMFeatureLayer",
		"name": "Towns",
		"renderer": renderer(map[string]any{
			"type": "CIMVectorMarker", "enable": true, "size": 6,
			"markerGraphics": []any{map[string]any{
				"type": "CIMMarkerGraphic",
				"symbol": map[string]any{"type": "CIMPolygonSymbol", "symbolLayers": []any{
					map[string]any{"type": "CIMSolidStroke", "enable": true, "width": 0.7, "color": color([4]int{0, 0, 0, 100})},
					map[string]any{"type": "CIMSolidFill", "enable": true, "color": color(f.TownColor)},
				}},
			}},
		}),
	})
	// A second layer displayed with the same name as the first.
	files["map/towns2.json"] = archivetest.JSON(t, map[string]any{"type": "CIMFeatureLayer", "name": "Towns"})
	files["map/cantons.json"] = archivetest.JSON(t, map[string]any{"type": "CIMFeatureLayer", "name": "Cantons", "renderer": renderer()})
	files["map/DEM.json"] = archivetest.JSON(t, map[string]any{"type": "CIMRasterLayer", "name": "dem"})
	files["map/hillshadech.json"] = archivetest.JSON(t, map[string]any{"type": "CIMRasterLayer", "name": "Hillshade"})

	if !f.OmitLayout {
		files["layout/layout.json"] = archivetest.JSON(t, map[string]any{
			"type": "CIMLayout",
			"name": "Layout",
			"elements": []any{
				map[string]any{"type": "CIMGraphicElement", "name": "Title"},
				map[string]any{
					"type": "CIMMapFrame",
					"name": "Map Frame",
					"uRI":  "CIMPATH=map/map.json",
					"view": map[string]any{
						"viewableObjectPath": "CIMPATH=map/map.json",
						"camera": map[string]any{
							"x": f.Camera[0], "y": f.Camera[1], "scale": f.Camera[2],
							"viewportWidth": 800, "viewportHeight": 600,
						},
					},
				},
				"CIMPATH=layout/frame2.json",
			},
		})
		files["layout/frame2.json"] = archivetest.JSON(t, map[string]any{
			"type": "CIMMapFrame",
			"name": "Overview",
			"view": map[string]any{"viewableObjectPath": "CIMPATH=map/unknown.json"},
		})
	}
	return files
}

// Write stores the fixture as dir/name and returns the archive path.
func (f Fixture) Write(t testing.TB, dir, name string) string {
	t.Helper()
	return archivetest.Write(t, dir, name, f.Files(t))
}
