// Package alerts evaluates threshold rules against finished calculations and
// delivers webhook notifications to Teams, Slack or generic HTTP targets.
// Alerts are tracked per rule and valve drawing.
package alerts
