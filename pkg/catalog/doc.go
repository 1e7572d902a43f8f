// Package catalog holds the turbines and valve stems the server can calculate
// against. The data comes from a YAML file:
//
//	turbines:
//	  - id: 1
//	    name: K-300-240
//	    valves:
//	      - id: 11
//	        drawing: "VS-215.40"
//	        diameter: 40
//	        clearance: 0.215
//	        round_radius: 2
//	        section_lengths: [313.5, 50, 97.5]
//
// A Catalog is safe for concurrent reads while Reload swaps in new data.
package catalog
