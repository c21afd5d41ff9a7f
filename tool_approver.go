package basicagent

// Weather tools are read-only lookups against public data sources, so
// none of them require explicit user approval.
var autoApprovedTools = map[string]bool{
	"get_weather":          true,
	"get_hourly_forecast":  true,
	"get_weather_alerts":   true,
	"get_solar_lunar_info": true,
	"get_air_quality":      true,
	"recommend_clothing":   true,
}

// Tool_Approver checks if a tool requires user approval.
// Returns true if the tool is auto-approved.
func Tool_Approver(tool_name string, tool_args map[string]interface{}) (bool, error) {
	if approved, exists := autoApprovedTools[tool_name]; exists && approved {
		return true, nil
	}
	return false, nil
}
