package zerror

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocationString(t *testing.T) {
	loc := Location{File: "main.zn", Line: 3, Column: 22}
	require.Equal(t, "main.zn:3:22", loc.String())
}

func TestErrorMessageWithoutDetail(t *testing.T) {
	err := New(Location{File: "main.zn", Line: 1, Column: 1}, StageSyntax, "UnexpectedToken", "")
	require.Equal(t, "main.zn:1:1: Syntax: UnexpectedToken", err.Error())
}

func TestErrorMessageWithDetail(t *testing.T) {
	err := New(Location{File: "main.zn", Line: 3, Column: 22}, StageSemanticElement,
		"Constant::OperatorRangeFirstOperandExpectedInteger", "found bool")
	require.Equal(t, "main.zn:3:22: Semantic::Element: Constant::OperatorRangeFirstOperandExpectedInteger (found bool)", err.Error())
}

func TestScenarioFormat(t *testing.T) {
	err := New(Location{Line: 3, Column: 22}, StageSemanticElement,
		"Constant::OperatorRangeFirstOperandExpectedInteger", "found:\"true\"")
	require.Equal(t, `Semantic::Element(3:22, Constant::OperatorRangeFirstOperandExpectedInteger{found:"true"})`, err.Scenario())
}

func TestScenarioFormatWithoutDetail(t *testing.T) {
	err := New(Location{Line: 3, Column: 22}, StageSemanticScope, "ReferenceLoop", "")
	require.Equal(t, "Semantic::Scope(3:22, ReferenceLoop)", err.Scenario())
}

func TestOrdinalWord(t *testing.T) {
	require.Equal(t, "First", OrdinalWord(1))
	require.Equal(t, "Second", OrdinalWord(2))
	require.Equal(t, "Operand3", OrdinalWord(3))
}
