package pdu

import (
	"encoding/binary"
	"fmt"
)

// maxWriteRegisterBytes caps the write sub-payload of a
// ReadWriteMultipleRegisters request at 242 bytes (121 registers), the
// value that keeps the encoded PDU within the 253-byte PDU budget after
// accounting for the function code and the two read/write address/quantity
// pairs. Some stacks allow up to 246; 242 is the conservative, widely
// interoperable choice.
const maxWriteRegisterBytes = 242

type ReadWriteMultipleRegistersRequest struct {
	ReadStartingAddress  uint16
	ReadQuantity         uint16
	WriteStartingAddress uint16
	WriteValues          []byte
}

func NewReadWriteMultipleRegistersRequest(readAddr, readQty, writeAddr uint16, writeValues []byte) (*ReadWriteMultipleRegistersRequest, error) {
	if readQty < 1 || readQty > 125 {
		return nil, invalidArgument("readQuantity", "must be in [1, 125]")
	}
	if err := checkAddressRange("readStartingAddress", uint32(readAddr), uint32(readQty)); err != nil {
		return nil, err
	}
	if err := checkRegisterData("writeValues", writeValues, 2, maxWriteRegisterBytes); err != nil {
		return nil, err
	}
	if err := checkAddressRange("writeStartingAddress", uint32(writeAddr), uint32(len(writeValues)/2)); err != nil {
		return nil, err
	}
	return &ReadWriteMultipleRegistersRequest{
		ReadStartingAddress:  readAddr,
		ReadQuantity:         readQty,
		WriteStartingAddress: writeAddr,
		WriteValues:          writeValues,
	}, nil
}

func (r *ReadWriteMultipleRegistersRequest) FunctionCode() FunctionCode {
	return ReadWriteMultipleRegisters
}

func (r *ReadWriteMultipleRegistersRequest) WriteQuantity() uint16 {
	return uint16(len(r.WriteValues) / 2)
}

func (r *ReadWriteMultipleRegistersRequest) Encode() []byte {
	buf := make([]byte, 0, 10+len(r.WriteValues))
	buf = append(buf, byte(ReadWriteMultipleRegisters))
	field := make([]byte, 2)
	binary.BigEndian.PutUint16(field, r.ReadStartingAddress)
	buf = append(buf, field...)
	binary.BigEndian.PutUint16(field, r.ReadQuantity)
	buf = append(buf, field...)
	binary.BigEndian.PutUint16(field, r.WriteStartingAddress)
	buf = append(buf, field...)
	binary.BigEndian.PutUint16(field, r.WriteQuantity())
	buf = append(buf, field...)
	buf = append(buf, byte(len(r.WriteValues)))
	buf = append(buf, r.WriteValues...)
	return buf
}

func (r *ReadWriteMultipleRegistersRequest) String() string {
	return fmt.Sprintf(
		"ReadWriteMultipleRegistersRequest{ReadStartingAddress: %d, ReadQuantity: %d, WriteStartingAddress: %d, WriteValues: % x}",
		r.ReadStartingAddress, r.ReadQuantity, r.WriteStartingAddress, r.WriteValues,
	)
}

func decodeReadWriteMultipleRegistersRequest(payload []byte) (*ReadWriteMultipleRegistersRequest, error) {
	c := newCursor(payload)
	readAddr, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	readQty, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	writeAddr, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	writeQty, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	n, err := c.byte()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	if int(writeQty)*2 != int(n) {
		return nil, invalidFrame("write byte count does not match write quantity")
	}
	values, err := c.bytes(int(n))
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	return NewReadWriteMultipleRegistersRequest(readAddr, readQty, writeAddr, values)
}

type ReadWriteMultipleRegistersResponse struct {
	Data []byte
}

func NewReadWriteMultipleRegistersResponse(data []byte) (*ReadWriteMultipleRegistersResponse, error) {
	if err := checkRegisterData("data", data, 2, 250); err != nil {
		return nil, err
	}
	return &ReadWriteMultipleRegistersResponse{Data: data}, nil
}

func (r *ReadWriteMultipleRegistersResponse) FunctionCode() FunctionCode {
	return ReadWriteMultipleRegisters
}

func (r *ReadWriteMultipleRegistersResponse) Encode() []byte {
	return encodeRegisterData(byte(ReadWriteMultipleRegisters), r.Data)
}

func (r *ReadWriteMultipleRegistersResponse) String() string {
	return fmt.Sprintf("ReadWriteMultipleRegistersResponse{Data: % x}", r.Data)
}

func decodeReadWriteMultipleRegistersResponse(payload []byte) (*ReadWriteMultipleRegistersResponse, error) {
	data, err := decodeRegisterData(payload)
	if err != nil {
		return nil, err
	}
	return NewReadWriteMultipleRegistersResponse(data)
}
