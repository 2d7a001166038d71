package audit

const (
	checklistCategoryUIConstant      = "System Monitor UI"
	checklistCategoryCPUConstant     = "CPU Tab"
	checklistCategoryThermalConstant = "Thermal Tab"
	checklistCategoryFanConstant     = "Fan Tab"
)

var manualChecklist = []ChecklistEntry{
	{
		Category:     checklistCategoryUIConstant,
		Test:         "Check for tabbed section with CPU, Fan, Thermal tabs",
		Instructions: "Run ./monitor and verify tabs exist in system window",
	},
	{
		Category:     checklistCategoryCPUConstant,
		Test:         "Performance graph with CPU percentage overlay",
		Instructions: "Open CPU tab, verify graph shows and has percentage text",
	},
	{
		Category:     checklistCategoryCPUConstant,
		Test:         "FPS and Y-scale slider controls",
		Instructions: "Verify sliders exist and affect graph behavior",
	},
	{
		Category:     checklistCategoryCPUConstant,
		Test:         "Animation stop/start control",
		Instructions: "Verify button/checkbox to pause graph animation",
	},
	{
		Category:     checklistCategoryThermalConstant,
		Test:         "Performance graph with temperature overlay",
		Instructions: "Open Thermal tab, verify graph and temperature display",
	},
	{
		Category:     checklistCategoryThermalConstant,
		Test:         "FPS and Y-scale slider controls",
		Instructions: "Verify sliders exist and work properly",
	},
	{
		Category:     checklistCategoryThermalConstant,
		Test:         "Animation control",
		Instructions: "Verify animation can be stopped/started",
	},
	{
		Category:     checklistCategoryFanConstant,
		Test:         "Performance graph with fan information",
		Instructions: "Open Fan tab, verify graph and fan status/speed/level",
	},
	{
		Category:     checklistCategoryFanConstant,
		Test:         "FPS and Y-scale controls",
		Instructions: "Verify slider controls work",
	},
}

// ManualChecklist returns the UI behaviors a person must verify by running the application.
// Each call returns a fresh copy.
func ManualChecklist() []ChecklistEntry {
	entries := make([]ChecklistEntry, len(manualChecklist))
	copy(entries, manualChecklist)
	return entries
}
