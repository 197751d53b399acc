// cmd/tools/model-inspect/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"churn-workers/internal/churn"
)

func main() {
	modelPath := flag.String("model", "configs/model/churn_model.json", "Path to the model artifact")
	inputPath := flag.String("input", "", "Optional client feature JSON file to score")
	flag.Parse()

	model, err := churn.LoadModel(*modelPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Model version: %s\n", model.Version())
	fmt.Printf("Features (%d), by importance:\n", len(model.FeatureNames()))

	importances := model.FeatureImportances()
	sort.SliceStable(importances, func(i, j int) bool {
		return importances[i].Importance > importances[j].Importance
	})
	for _, fi := range importances {
		marker := ""
		if !(fi.Importance > churn.MinImportance) {
			marker = "  (never reported)"
		}
		fmt.Printf("  %-18s %.4f%s\n", fi.Feature, fi.Importance, marker)
	}

	if *inputPath == "" {
		return
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		fmt.Printf("Error reading input: %v\n", err)
		os.Exit(1)
	}
	var record churn.Record
	if err := json.Unmarshal(data, &record); err != nil {
		fmt.Printf("Error decoding input: %v\n", err)
		os.Exit(1)
	}

	prediction, err := churn.NewEngine(model).Predict(record)
	if err != nil {
		fmt.Printf("Prediction failed: %v\n", err)
		os.Exit(1)
	}
	out, _ := json.MarshalIndent(prediction, "", "  ")
	fmt.Println(string(out))
}
