package contract

import (
	"fmt"

	"github.com/getmockd/contractd/pkg/result"
	"github.com/getmockd/contractd/pkg/value"
)

// ContractAndStubMismatchMessages words failures found while validating
// stub data against a contract.
type ContractAndStubMismatchMessages struct{}

func (ContractAndStubMismatchMessages) MismatchMessage(expected, actual string) string {
	return fmt.Sprintf("Contract expected %s but stub contained %s", expected, actual)
}

func (ContractAndStubMismatchMessages) UnexpectedKey(keyLabel, keyName string) string {
	return fmt.Sprintf("%s named %s in the stub was not in the contract", result.Capitalize(keyLabel), keyName)
}

func (ContractAndStubMismatchMessages) ExpectedKeyWasMissing(keyLabel, keyName string) string {
	return fmt.Sprintf("%s named %s in the contract was not found in the stub", result.Capitalize(keyLabel), keyName)
}

// ContractAndResponseMismatchMessages words failures in a contract test
// response.
type ContractAndResponseMismatchMessages struct{}

func (ContractAndResponseMismatchMessages) MismatchMessage(expected, actual string) string {
	return fmt.Sprintf("Contract expected %s but response contained %s", expected, actual)
}

func (ContractAndResponseMismatchMessages) UnexpectedKey(keyLabel, keyName string) string {
	return fmt.Sprintf("%s named %s in the response was not in the contract", result.Capitalize(keyLabel), keyName)
}

func (ContractAndResponseMismatchMessages) ExpectedKeyWasMissing(keyLabel, keyName string) string {
	return fmt.Sprintf("%s named %s in the contract was not found in the response", result.Capitalize(keyLabel), keyName)
}

// ContractAndRowValueMismatchMessages words failures in example rows.
type ContractAndRowValueMismatchMessages struct{}

func (ContractAndRowValueMismatchMessages) MismatchMessage(expected, actual string) string {
	return fmt.Sprintf("Contract expected %s but found value %s", expected, actual)
}

func (ContractAndRowValueMismatchMessages) UnexpectedKey(keyLabel, keyName string) string {
	return fmt.Sprintf("%s named %s in the row value was not in the contract", result.Capitalize(keyLabel), keyName)
}

func (ContractAndRowValueMismatchMessages) ExpectedKeyWasMissing(keyLabel, keyName string) string {
	return fmt.Sprintf("%s named %s in the contract was not found in the row value", result.Capitalize(keyLabel), keyName)
}

// NewAndOldContractRequestMismatches words request failures when an old
// contract's request is checked against a new contract.
type NewAndOldContractRequestMismatches struct{}

func (NewAndOldContractRequestMismatches) MismatchMessage(expected, actual string) string {
	return fmt.Sprintf("This is %s in the new contract, %s in the old contract", expected, actual)
}

func (NewAndOldContractRequestMismatches) UnexpectedKey(keyLabel, keyName string) string {
	return fmt.Sprintf("%s named %q in the request from the old contract is not in the new contract", result.Capitalize(keyLabel), keyName)
}

func (NewAndOldContractRequestMismatches) ExpectedKeyWasMissing(keyLabel, keyName string) string {
	return fmt.Sprintf("New contract expects %s named %q in the request but it is missing from the old contract", keyLabel, keyName)
}

// ValueMismatch names the type of the old value rather than the value
// itself, since the old value was generated.
func (m NewAndOldContractRequestMismatches) ValueMismatch(expected string, actual value.Value) string {
	name := "null"
	switch {
	case actual == nil:
	case actual == value.Null:
		name = "nullable"
	default:
		name = actual.TypeName()
	}
	return m.MismatchMessage(expected, name)
}

// NewAndOldContractResponseMismatches words response failures when a new
// contract's response is checked against an old one.
type NewAndOldContractResponseMismatches struct{}

func (NewAndOldContractResponseMismatches) MismatchMessage(expected, actual string) string {
	return fmt.Sprintf("This is %s in the new contract response but %s in the old contract", actual, expected)
}

func (NewAndOldContractResponseMismatches) UnexpectedKey(keyLabel, keyName string) string {
	return fmt.Sprintf("%s named %q in the response from the new contract is not in the old contract", result.Capitalize(keyLabel), keyName)
}

func (NewAndOldContractResponseMismatches) ExpectedKeyWasMissing(keyLabel, keyName string) string {
	return fmt.Sprintf("The old contract expects %s named %q but it is missing in the new contract", keyLabel, keyName)
}
