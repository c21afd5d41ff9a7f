package weather_tools

import (
	"github.com/alfmat/basic-agent/models"
)

func cityParam(description string) models.Parameters {
	return models.Parameters{
		Type: "object",
		Properties: map[string]interface{}{
			"city": map[string]interface{}{
				"type":        "string",
				"description": description,
			},
		},
		Required: []string{"city"},
	}
}

// GetWeatherTool returns a FunctionDeclaration for the current weather tool.
func GetWeatherTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "get_weather",
		Description: "Get current weather and basic forecast for US cities from the National Weather Service.",
		Parameters:  cityParam("Name of the US city, e.g. 'Seattle' or 'Austin, TX'"),
		Callable:    Get_Weather,
	}
}

// HourlyForecastTool returns a FunctionDeclaration for the 12-hour forecast tool.
func HourlyForecastTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "get_hourly_forecast",
		Description: "Get a detailed 12-hour forecast with temperatures and rain chances for a US city.",
		Parameters:  cityParam("Name of the US city to get the hourly forecast for"),
		Callable:    Get_Hourly_Forecast,
	}
}

// WeatherAlertsTool returns a FunctionDeclaration for the alerts tool.
func WeatherAlertsTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "get_weather_alerts",
		Description: "Check for active weather alerts, watches, and warnings for a US city.",
		Parameters:  cityParam("Name of the US city to check alerts for"),
		Callable:    Get_Weather_Alerts,
	}
}

// SolarLunarTool returns a FunctionDeclaration for the sunrise/sunset/moon tool.
func SolarLunarTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "get_solar_lunar_info",
		Description: "Get sunrise, sunset, daylight duration, and moon phase for a US city.",
		Parameters:  cityParam("Name of the US city to get solar and lunar info for"),
		Callable:    Get_Solar_Lunar_Info,
	}
}

// AirQualityTool returns a FunctionDeclaration for the air quality tool.
func AirQualityTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "get_air_quality",
		Description: "Get the air quality index, pollutant readings, and health guidance for a US city.",
		Parameters:  cityParam("Name of the US city to get air quality for"),
		Callable:    Get_Air_Quality,
	}
}

// ClothingTool returns a FunctionDeclaration for the clothing recommendation tool.
func ClothingTool() models.FunctionDeclaration {
	return models.FunctionDeclaration{
		Name:        "recommend_clothing",
		Description: "Suggest appropriate clothing and activities based on the current weather in a US city.",
		Parameters:  cityParam("Name of the US city to get recommendations for"),
		Callable:    Recommend_Clothing,
	}
}

// DefaultTools returns the full weather tool set.
func DefaultTools() []models.FunctionDeclaration {
	return []models.FunctionDeclaration{
		GetWeatherTool(),
		HourlyForecastTool(),
		WeatherAlertsTool(),
		SolarLunarTool(),
		AirQualityTool(),
		ClothingTool(),
	}
}
