// Package weather_tools provides the weather lookup tools the agent can
// call.
//
// Available tools:
//   - Get_Weather: current conditions and forecast for a US city
//   - Get_Hourly_Forecast: 12-hour breakdown with temperatures and rain chances
//   - Get_Weather_Alerts: active alerts, watches, and warnings
//   - Get_Solar_Lunar_Info: sunrise, sunset, and moon phase
//   - Get_Air_Quality: AirNow air quality index and health guidance
//   - Recommend_Clothing: clothing and activity suggestions for the conditions
//
// All tools take a city name, geocode it through Nominatim, and read
// weather data from the National Weather Service API. Each tool is
// defined in its own file.
package weather_tools
