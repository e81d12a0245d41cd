// Package config holds the process configuration of ragbase.
//
// Values are layered, lowest precedence first:
//   - built-in defaults (Default)
//   - a YAML file
//   - a dotenv file
//   - the process environment
//
// Configuration is read once at start and never reloaded.
//
// Recognised environment variables are APP_HOME, the RAGBASE_* variables
// listed in env.go, and GROQ_API_KEY or OPENAI_API_KEY as fallbacks for the
// remote API key.
package config
