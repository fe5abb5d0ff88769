// Package pdu is the MODBUS message catalogue: a strongly typed Request
// and Response variant for every supported function code, each with
// bit-exact binary codecs and a human-readable formatter.
package pdu

import "fmt"

// FunctionCode identifies a MODBUS operation. The sentinel bit 0x80 marks
// an exception response; FunctionCode.AsException()/IsException()/Base()
// deal with that encoding.
type FunctionCode uint8

const (
	ReadCoils                  FunctionCode = 0x01
	ReadDiscreteInputs         FunctionCode = 0x02
	ReadHoldingRegisters       FunctionCode = 0x03
	ReadInputRegisters         FunctionCode = 0x04
	WriteSingleCoil            FunctionCode = 0x05
	WriteSingleRegister        FunctionCode = 0x06
	WriteMultipleCoils         FunctionCode = 0x0F
	WriteMultipleRegisters     FunctionCode = 0x10
	ReadFileRecord             FunctionCode = 0x14
	WriteFileRecord            FunctionCode = 0x15
	ReadWriteMultipleRegisters FunctionCode = 0x17
)

// exceptionBit is added to a function code to form the function code
// carried by an exception response.
const exceptionBit = 0x80

// IsException reports whether fc carries the exception sentinel bit, i.e.
// whether a PDU starting with this byte is an ExceptionResponse rather
// than a normal Response.
func (fc FunctionCode) IsException() bool {
	return fc&exceptionBit != 0
}

// AsException returns the function code with the exception sentinel bit
// set, as carried by an ExceptionResponse.
func (fc FunctionCode) AsException() FunctionCode {
	return fc | exceptionBit
}

// Base strips the exception sentinel bit, returning the "real" function
// code an exception response refers to.
func (fc FunctionCode) Base() FunctionCode {
	return fc &^ exceptionBit
}

func (fc FunctionCode) String() string {
	switch fc.Base() {
	case ReadCoils:
		return "ReadCoils"
	case ReadDiscreteInputs:
		return "ReadDiscreteInputs"
	case ReadHoldingRegisters:
		return "ReadHoldingRegisters"
	case ReadInputRegisters:
		return "ReadInputRegisters"
	case WriteSingleCoil:
		return "WriteSingleCoil"
	case WriteSingleRegister:
		return "WriteSingleRegister"
	case WriteMultipleCoils:
		return "WriteMultipleCoils"
	case WriteMultipleRegisters:
		return "WriteMultipleRegisters"
	case ReadFileRecord:
		return "ReadFileRecord"
	case WriteFileRecord:
		return "WriteFileRecord"
	case ReadWriteMultipleRegisters:
		return "ReadWriteMultipleRegisters"
	default:
		return fmt.Sprintf("FunctionCode(0x%02x)", uint8(fc))
	}
}
