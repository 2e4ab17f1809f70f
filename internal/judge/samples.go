package judge

import (
	"context"
	"fmt"
	"os"
)

// SampleInput names one case input on disk.
type SampleInput struct {
	CaseID    string
	InputPath string
}

// RunSamples compiles the solution once and runs every input in the given order.
// each, when set, sees every output as soon as it is produced; an error from it
// stops the run. Outputs gathered so far are returned with any error.
func RunSamples(ctx context.Context, exec SampleExecutor, solutionPath, language string, inputs []SampleInput, each func(CaseOutput) error) ([]CaseOutput, error) {
	program, err := exec.Compile(ctx, solutionPath, language)
	if err != nil {
		return nil, err
	}
	defer func() { _ = program.Close() }()

	outputs := make([]CaseOutput, 0, len(inputs))
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}
		out, err := runOne(ctx, program, in)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
		if each != nil {
			if err := each(out); err != nil {
				return outputs, err
			}
		}
	}
	return outputs, nil
}

func runOne(ctx context.Context, program Program, in SampleInput) (CaseOutput, error) {
	file, err := os.Open(in.InputPath)
	if err != nil {
		return CaseOutput{}, fmt.Errorf("open case %s input failed: %w", in.CaseID, err)
	}
	defer file.Close()

	out, err := program.Run(ctx, file)
	out.CaseID = in.CaseID
	return out, err
}
