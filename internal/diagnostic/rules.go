package diagnostic

const fallbackResponse = "I can help with temperature issues, vibration problems, energy consumption, " +
	"maintenance scheduling, and alert management. Could you be more specific about your concern?"

// DefaultRules is ordered: earlier rules win when a message mentions several topics.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "temperature",
			Keywords: []string{"temperature", "overheat"},
			Response: "For temperature alerts: 1) Check cooling system status 2) Verify fan operation " +
				"3) Inspect air filters 4) Monitor thermal sensors 5) If critical, initiate emergency shutdown protocol.",
		},
		{
			Name:     "vibration",
			Keywords: []string{"vibration"},
			Response: "For vibration issues: 1) Check motor mounts and alignment 2) Inspect bearing condition " +
				"3) Verify belt tension 4) Look for loose components 5) Schedule bearing lubrication if needed.",
		},
		{
			Name:     "energy",
			Keywords: []string{"energy", "power"},
			Response: "For power consumption anomalies: 1) Review electrical connections 2) Check for motor efficiency " +
				"3) Inspect load conditions 4) Verify power factor correction 5) Consider energy optimization settings.",
		},
		{
			Name:     "maintenance",
			Keywords: []string{"maintenance"},
			Response: "Recommended maintenance schedule: Daily - Check metrics and alerts, Weekly - Inspect physical components, " +
				"Monthly - Lubricate moving parts, Quarterly - Full system diagnostic. Would you like specific guidance for any equipment?",
		},
		{
			Name:     "alert",
			Keywords: []string{"alert", "alarm"},
			Response: "Current alert protocols: Critical alerts require immediate attention, Warning alerts should be investigated " +
				"within 4 hours, Info alerts are logged for trend analysis. What specific alert do you need help with?",
		},
	}
}
