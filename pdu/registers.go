package pdu

import (
	"encoding/binary"
	"fmt"
)

// ---- ReadHoldingRegisters ----

type ReadHoldingRegistersRequest struct {
	StartingAddress uint16
	Quantity        uint16
}

func NewReadHoldingRegistersRequest(startingAddress, quantity uint16) (*ReadHoldingRegistersRequest, error) {
	if quantity < 1 || quantity > 125 {
		return nil, invalidArgument("quantity", "must be in [1, 125]")
	}
	if err := checkAddressRange("startingAddress", uint32(startingAddress), uint32(quantity)); err != nil {
		return nil, err
	}
	return &ReadHoldingRegistersRequest{StartingAddress: startingAddress, Quantity: quantity}, nil
}

func (r *ReadHoldingRegistersRequest) FunctionCode() FunctionCode { return ReadHoldingRegisters }

func (r *ReadHoldingRegistersRequest) Encode() []byte {
	return encodeReadRegistersRequest(byte(ReadHoldingRegisters), r.StartingAddress, r.Quantity)
}

func (r *ReadHoldingRegistersRequest) String() string {
	return fmt.Sprintf("ReadHoldingRegistersRequest{StartingAddress: %d, Quantity: %d}", r.StartingAddress, r.Quantity)
}

func encodeReadRegistersRequest(fc byte, startingAddress, quantity uint16) []byte {
	buf := make([]byte, 5)
	buf[0] = fc
	binary.BigEndian.PutUint16(buf[1:], startingAddress)
	binary.BigEndian.PutUint16(buf[3:], quantity)
	return buf
}

func decodeReadRegistersRequest(payload []byte) (addr, qty uint16, err error) {
	c := newCursor(payload)
	addr, err = c.uint16()
	if err != nil {
		return 0, 0, invalidFrame(err.Error())
	}
	qty, err = c.uint16()
	if err != nil {
		return 0, 0, invalidFrame(err.Error())
	}
	return addr, qty, nil
}

func decodeReadHoldingRegistersRequest(payload []byte) (*ReadHoldingRegistersRequest, error) {
	addr, qty, err := decodeReadRegistersRequest(payload)
	if err != nil {
		return nil, err
	}
	return NewReadHoldingRegistersRequest(addr, qty)
}

type ReadHoldingRegistersResponse struct {
	Data []byte
}

func NewReadHoldingRegistersResponse(data []byte) (*ReadHoldingRegistersResponse, error) {
	if err := checkRegisterData("data", data, 2, 250); err != nil {
		return nil, err
	}
	return &ReadHoldingRegistersResponse{Data: data}, nil
}

func checkRegisterData(field string, data []byte, min, max int) error {
	if len(data)%2 != 0 {
		return invalidArgument(field, "must have an even length")
	}
	if len(data) < min || len(data) > max {
		return invalidArgument(field, fmt.Sprintf("length must be in [%d, %d]", min, max))
	}
	return nil
}

func (r *ReadHoldingRegistersResponse) FunctionCode() FunctionCode { return ReadHoldingRegisters }

func (r *ReadHoldingRegistersResponse) Encode() []byte {
	return encodeRegisterData(byte(ReadHoldingRegisters), r.Data)
}

func (r *ReadHoldingRegistersResponse) String() string {
	return fmt.Sprintf("ReadHoldingRegistersResponse{Data: % x}", r.Data)
}

func encodeRegisterData(fc byte, data []byte) []byte {
	buf := make([]byte, 0, 2+len(data))
	buf = append(buf, fc, byte(len(data)))
	buf = append(buf, data...)
	return buf
}

func decodeRegisterData(payload []byte) ([]byte, error) {
	c := newCursor(payload)
	n, err := c.byte()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	data, err := c.bytes(int(n))
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	return data, nil
}

func decodeReadHoldingRegistersResponse(payload []byte) (*ReadHoldingRegistersResponse, error) {
	data, err := decodeRegisterData(payload)
	if err != nil {
		return nil, err
	}
	return NewReadHoldingRegistersResponse(data)
}

// ---- ReadInputRegisters ----

type ReadInputRegistersRequest struct {
	StartingAddress uint16
	Quantity        uint16
}

func NewReadInputRegistersRequest(startingAddress, quantity uint16) (*ReadInputRegistersRequest, error) {
	if quantity < 1 || quantity > 125 {
		return nil, invalidArgument("quantity", "must be in [1, 125]")
	}
	if err := checkAddressRange("startingAddress", uint32(startingAddress), uint32(quantity)); err != nil {
		return nil, err
	}
	return &ReadInputRegistersRequest{StartingAddress: startingAddress, Quantity: quantity}, nil
}

func (r *ReadInputRegistersRequest) FunctionCode() FunctionCode { return ReadInputRegisters }

func (r *ReadInputRegistersRequest) Encode() []byte {
	return encodeReadRegistersRequest(byte(ReadInputRegisters), r.StartingAddress, r.Quantity)
}

func (r *ReadInputRegistersRequest) String() string {
	return fmt.Sprintf("ReadInputRegistersRequest{StartingAddress: %d, Quantity: %d}", r.StartingAddress, r.Quantity)
}

func decodeReadInputRegistersRequest(payload []byte) (*ReadInputRegistersRequest, error) {
	addr, qty, err := decodeReadRegistersRequest(payload)
	if err != nil {
		return nil, err
	}
	return NewReadInputRegistersRequest(addr, qty)
}

type ReadInputRegistersResponse struct {
	Data []byte
}

func NewReadInputRegistersResponse(data []byte) (*ReadInputRegistersResponse, error) {
	if err := checkRegisterData("data", data, 2, 250); err != nil {
		return nil, err
	}
	return &ReadInputRegistersResponse{Data: data}, nil
}

func (r *ReadInputRegistersResponse) FunctionCode() FunctionCode { return ReadInputRegisters }

func (r *ReadInputRegistersResponse) Encode() []byte {
	return encodeRegisterData(byte(ReadInputRegisters), r.Data)
}

func (r *ReadInputRegistersResponse) String() string {
	return fmt.Sprintf("ReadInputRegistersResponse{Data: % x}", r.Data)
}

func decodeReadInputRegistersResponse(payload []byte) (*ReadInputRegistersResponse, error) {
	data, err := decodeRegisterData(payload)
	if err != nil {
		return nil, err
	}
	return NewReadInputRegistersResponse(data)
}

// ---- WriteSingleRegister ----

type WriteSingleRegisterRequest struct {
	Address uint16
	Value   uint16
}

// NewWriteSingleRegisterRequest accepts a signed value in
// [-32768, 65535] and converts negatives via +0x10000, per spec.md §3.
func NewWriteSingleRegisterRequest(address uint16, value int32) (*WriteSingleRegisterRequest, error) {
	v, err := normalizeRegisterValue(value)
	if err != nil {
		return nil, err
	}
	return &WriteSingleRegisterRequest{Address: address, Value: v}, nil
}

func normalizeRegisterValue(value int32) (uint16, error) {
	if value < -32768 || value > 65535 {
		return 0, invalidArgument("value", "must be in [-32768, 65535]")
	}
	if value < 0 {
		value += 0x10000
	}
	return uint16(value), nil
}

func (r *WriteSingleRegisterRequest) FunctionCode() FunctionCode { return WriteSingleRegister }

func (r *WriteSingleRegisterRequest) Encode() []byte {
	return encodeAddrValue(byte(WriteSingleRegister), r.Address, r.Value)
}

func (r *WriteSingleRegisterRequest) String() string {
	return fmt.Sprintf("WriteSingleRegisterRequest{Address: %d, Value: %d}", r.Address, r.Value)
}

func encodeAddrValue(fc byte, address, value uint16) []byte {
	buf := make([]byte, 5)
	buf[0] = fc
	binary.BigEndian.PutUint16(buf[1:], address)
	binary.BigEndian.PutUint16(buf[3:], value)
	return buf
}

func decodeAddrValue(payload []byte) (address, value uint16, err error) {
	c := newCursor(payload)
	address, err = c.uint16()
	if err != nil {
		return 0, 0, invalidFrame(err.Error())
	}
	value, err = c.uint16()
	if err != nil {
		return 0, 0, invalidFrame(err.Error())
	}
	return address, value, nil
}

func decodeWriteSingleRegisterRequest(payload []byte) (*WriteSingleRegisterRequest, error) {
	addr, value, err := decodeAddrValue(payload)
	if err != nil {
		return nil, err
	}
	return &WriteSingleRegisterRequest{Address: addr, Value: value}, nil
}

type WriteSingleRegisterResponse struct {
	Address uint16
	Value   uint16
}

func NewWriteSingleRegisterResponse(address uint16, value int32) (*WriteSingleRegisterResponse, error) {
	v, err := normalizeRegisterValue(value)
	if err != nil {
		return nil, err
	}
	return &WriteSingleRegisterResponse{Address: address, Value: v}, nil
}

func (r *WriteSingleRegisterResponse) FunctionCode() FunctionCode { return WriteSingleRegister }

func (r *WriteSingleRegisterResponse) Encode() []byte {
	return encodeAddrValue(byte(WriteSingleRegister), r.Address, r.Value)
}

func (r *WriteSingleRegisterResponse) String() string {
	return fmt.Sprintf("WriteSingleRegisterResponse{Address: %d, Value: %d}", r.Address, r.Value)
}

func decodeWriteSingleRegisterResponse(payload []byte) (*WriteSingleRegisterResponse, error) {
	addr, value, err := decodeAddrValue(payload)
	if err != nil {
		return nil, err
	}
	return &WriteSingleRegisterResponse{Address: addr, Value: value}, nil
}

// ---- WriteMultipleRegisters ----

type WriteMultipleRegistersRequest struct {
	StartingAddress uint16
	Values          []byte
}

func NewWriteMultipleRegistersRequest(startingAddress uint16, values []byte) (*WriteMultipleRegistersRequest, error) {
	if err := checkRegisterData("values", values, 2, 246); err != nil {
		return nil, err
	}
	if err := checkAddressRange("startingAddress", uint32(startingAddress), uint32(len(values)/2)); err != nil {
		return nil, err
	}
	return &WriteMultipleRegistersRequest{StartingAddress: startingAddress, Values: values}, nil
}

// Quantity returns the number of 16-bit registers Values encodes.
func (r *WriteMultipleRegistersRequest) Quantity() uint16 {
	return uint16(len(r.Values) / 2)
}

func (r *WriteMultipleRegistersRequest) FunctionCode() FunctionCode { return WriteMultipleRegisters }

func (r *WriteMultipleRegistersRequest) Encode() []byte {
	buf := make([]byte, 0, 6+len(r.Values))
	buf = append(buf, byte(WriteMultipleRegisters))
	addrBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(addrBuf, r.StartingAddress)
	buf = append(buf, addrBuf...)
	qtyBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(qtyBuf, r.Quantity())
	buf = append(buf, qtyBuf...)
	buf = append(buf, byte(len(r.Values)))
	buf = append(buf, r.Values...)
	return buf
}

func (r *WriteMultipleRegistersRequest) String() string {
	return fmt.Sprintf("WriteMultipleRegistersRequest{StartingAddress: %d, Values: % x}", r.StartingAddress, r.Values)
}

func decodeWriteMultipleRegistersRequest(payload []byte) (*WriteMultipleRegistersRequest, error) {
	c := newCursor(payload)
	addr, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	qty, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	n, err := c.byte()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	if int(qty)*2 != int(n) {
		return nil, invalidFrame("byte count does not match quantity")
	}
	values, err := c.bytes(int(n))
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	return NewWriteMultipleRegistersRequest(addr, values)
}

type WriteMultipleRegistersResponse struct {
	StartingAddress uint16
	Quantity        uint16
}

func NewWriteMultipleRegistersResponse(startingAddress, quantity uint16) (*WriteMultipleRegistersResponse, error) {
	if quantity < 1 || quantity > 123 {
		return nil, invalidArgument("quantity", "must be in [1, 123]")
	}
	return &WriteMultipleRegistersResponse{StartingAddress: startingAddress, Quantity: quantity}, nil
}

func (r *WriteMultipleRegistersResponse) FunctionCode() FunctionCode { return WriteMultipleRegisters }

func (r *WriteMultipleRegistersResponse) Encode() []byte {
	buf := make([]byte, 5)
	buf[0] = byte(WriteMultipleRegisters)
	binary.BigEndian.PutUint16(buf[1:], r.StartingAddress)
	binary.BigEndian.PutUint16(buf[3:], r.Quantity)
	return buf
}

func (r *WriteMultipleRegistersResponse) String() string {
	return fmt.Sprintf("WriteMultipleRegistersResponse{StartingAddress: %d, Quantity: %d}", r.StartingAddress, r.Quantity)
}

func decodeWriteMultipleRegistersResponse(payload []byte) (*WriteMultipleRegistersResponse, error) {
	addr, qty, err := decodeReadRegistersRequest(payload)
	if err != nil {
		return nil, err
	}
	return NewWriteMultipleRegistersResponse(addr, qty)
}
