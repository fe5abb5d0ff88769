package pdu

import (
	"encoding/binary"
	"fmt"
)

func checkAddressRange(field string, start uint32, quantity uint32) error {
	if start+quantity > 0x10000 {
		return invalidArgument(field, "starting address + quantity exceeds the 0x10000 address space")
	}
	return nil
}

// ---- ReadCoils ----

// ReadCoilsRequest requests 1 to 2000 contiguous coil states.
type ReadCoilsRequest struct {
	StartingAddress uint16
	Quantity        uint16
}

// NewReadCoilsRequest validates fields and constructs a request.
func NewReadCoilsRequest(startingAddress, quantity uint16) (*ReadCoilsRequest, error) {
	if quantity < 1 || quantity > 2000 {
		return nil, invalidArgument("quantity", "must be in [1, 2000]")
	}
	if err := checkAddressRange("startingAddress", uint32(startingAddress), uint32(quantity)); err != nil {
		return nil, err
	}
	return &ReadCoilsRequest{StartingAddress: startingAddress, Quantity: quantity}, nil
}

func (r *ReadCoilsRequest) FunctionCode() FunctionCode { return ReadCoils }

func (r *ReadCoilsRequest) Encode() []byte {
	buf := make([]byte, 5)
	buf[0] = byte(ReadCoils)
	binary.BigEndian.PutUint16(buf[1:], r.StartingAddress)
	binary.BigEndian.PutUint16(buf[3:], r.Quantity)
	return buf
}

func (r *ReadCoilsRequest) String() string {
	return fmt.Sprintf("ReadCoilsRequest{StartingAddress: %d, Quantity: %d}", r.StartingAddress, r.Quantity)
}

func decodeReadCoilsRequest(payload []byte) (*ReadCoilsRequest, error) {
	c := newCursor(payload)
	addr, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	qty, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	return NewReadCoilsRequest(addr, qty)
}

// ReadCoilsResponse carries the requested coil states.
type ReadCoilsResponse struct {
	States []bool
}

func NewReadCoilsResponse(states []bool) (*ReadCoilsResponse, error) {
	if len(states) < 1 || len(states) > 2000 {
		return nil, invalidArgument("states", "must contain between 1 and 2000 values")
	}
	return &ReadCoilsResponse{States: states}, nil
}

func (r *ReadCoilsResponse) FunctionCode() FunctionCode { return ReadCoils }

func (r *ReadCoilsResponse) Encode() []byte {
	packed := encodeBools(r.States)
	buf := make([]byte, 0, 2+len(packed))
	buf = append(buf, byte(ReadCoils), byte(len(packed)))
	buf = append(buf, packed...)
	return buf
}

func (r *ReadCoilsResponse) String() string {
	return fmt.Sprintf("ReadCoilsResponse{States: %v}", r.States)
}

func decodeReadCoilsResponse(payload []byte) (*ReadCoilsResponse, error) {
	return decodeBoolResponse(payload)
}

func decodeBoolResponse(payload []byte) (*ReadCoilsResponse, error) {
	c := newCursor(payload)
	n, err := c.byte()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	data, err := c.bytes(int(n))
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	// the wire format does not carry an exact quantity, only whole bytes;
	// callers that need the precise requested quantity trim the result.
	states := decodeBools(int(n)*8, data)
	return &ReadCoilsResponse{States: states}, nil
}

// ---- ReadDiscreteInputs ----

type ReadDiscreteInputsRequest struct {
	StartingAddress uint16
	Quantity        uint16
}

func NewReadDiscreteInputsRequest(startingAddress, quantity uint16) (*ReadDiscreteInputsRequest, error) {
	if quantity < 1 || quantity > 2000 {
		return nil, invalidArgument("quantity", "must be in [1, 2000]")
	}
	if err := checkAddressRange("startingAddress", uint32(startingAddress), uint32(quantity)); err != nil {
		return nil, err
	}
	return &ReadDiscreteInputsRequest{StartingAddress: startingAddress, Quantity: quantity}, nil
}

func (r *ReadDiscreteInputsRequest) FunctionCode() FunctionCode { return ReadDiscreteInputs }

func (r *ReadDiscreteInputsRequest) Encode() []byte {
	buf := make([]byte, 5)
	buf[0] = byte(ReadDiscreteInputs)
	binary.BigEndian.PutUint16(buf[1:], r.StartingAddress)
	binary.BigEndian.PutUint16(buf[3:], r.Quantity)
	return buf
}

func (r *ReadDiscreteInputsRequest) String() string {
	return fmt.Sprintf("ReadDiscreteInputsRequest{StartingAddress: %d, Quantity: %d}", r.StartingAddress, r.Quantity)
}

func decodeReadDiscreteInputsRequest(payload []byte) (*ReadDiscreteInputsRequest, error) {
	c := newCursor(payload)
	addr, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	qty, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	return NewReadDiscreteInputsRequest(addr, qty)
}

type ReadDiscreteInputsResponse struct {
	States []bool
}

func NewReadDiscreteInputsResponse(states []bool) (*ReadDiscreteInputsResponse, error) {
	if len(states) < 1 || len(states) > 2000 {
		return nil, invalidArgument("states", "must contain between 1 and 2000 values")
	}
	return &ReadDiscreteInputsResponse{States: states}, nil
}

func (r *ReadDiscreteInputsResponse) FunctionCode() FunctionCode { return ReadDiscreteInputs }

func (r *ReadDiscreteInputsResponse) Encode() []byte {
	packed := encodeBools(r.States)
	buf := make([]byte, 0, 2+len(packed))
	buf = append(buf, byte(ReadDiscreteInputs), byte(len(packed)))
	buf = append(buf, packed...)
	return buf
}

func (r *ReadDiscreteInputsResponse) String() string {
	return fmt.Sprintf("ReadDiscreteInputsResponse{States: %v}", r.States)
}

func decodeReadDiscreteInputsResponse(payload []byte) (*ReadDiscreteInputsResponse, error) {
	res, err := decodeBoolResponse(payload)
	if err != nil {
		return nil, err
	}
	return &ReadDiscreteInputsResponse{States: res.States}, nil
}

// ---- WriteSingleCoil ----

const (
	coilOnWire  uint16 = 0xFF00
	coilOffWire uint16 = 0x0000
)

type WriteSingleCoilRequest struct {
	Address uint16
	State   bool
}

func NewWriteSingleCoilRequest(address uint16, state bool) (*WriteSingleCoilRequest, error) {
	return &WriteSingleCoilRequest{Address: address, State: state}, nil
}

func (r *WriteSingleCoilRequest) FunctionCode() FunctionCode { return WriteSingleCoil }

func (r *WriteSingleCoilRequest) Encode() []byte {
	return encodeSingleCoil(byte(WriteSingleCoil), r.Address, r.State)
}

func (r *WriteSingleCoilRequest) String() string {
	return fmt.Sprintf("WriteSingleCoilRequest{Address: %d, State: %v}", r.Address, r.State)
}

func encodeSingleCoil(fc byte, address uint16, state bool) []byte {
	buf := make([]byte, 5)
	buf[0] = fc
	binary.BigEndian.PutUint16(buf[1:], address)
	if state {
		binary.BigEndian.PutUint16(buf[3:], coilOnWire)
	} else {
		binary.BigEndian.PutUint16(buf[3:], coilOffWire)
	}
	return buf
}

func decodeSingleCoil(payload []byte) (address uint16, state bool, err error) {
	c := newCursor(payload)
	address, err = c.uint16()
	if err != nil {
		return 0, false, invalidFrame(err.Error())
	}
	raw, err := c.uint16()
	if err != nil {
		return 0, false, invalidFrame(err.Error())
	}
	// any nonzero value is accepted as ON on input, per spec.md §4.1.
	state = raw != coilOffWire
	return address, state, nil
}

func decodeWriteSingleCoilRequest(payload []byte) (*WriteSingleCoilRequest, error) {
	addr, state, err := decodeSingleCoil(payload)
	if err != nil {
		return nil, err
	}
	return &WriteSingleCoilRequest{Address: addr, State: state}, nil
}

type WriteSingleCoilResponse struct {
	Address uint16
	State   bool
}

func NewWriteSingleCoilResponse(address uint16, state bool) (*WriteSingleCoilResponse, error) {
	return &WriteSingleCoilResponse{Address: address, State: state}, nil
}

func (r *WriteSingleCoilResponse) FunctionCode() FunctionCode { return WriteSingleCoil }

func (r *WriteSingleCoilResponse) Encode() []byte {
	return encodeSingleCoil(byte(WriteSingleCoil), r.Address, r.State)
}

func (r *WriteSingleCoilResponse) String() string {
	return fmt.Sprintf("WriteSingleCoilResponse{Address: %d, State: %v}", r.Address, r.State)
}

func decodeWriteSingleCoilResponse(payload []byte) (*WriteSingleCoilResponse, error) {
	addr, state, err := decodeSingleCoil(payload)
	if err != nil {
		return nil, err
	}
	return &WriteSingleCoilResponse{Address: addr, State: state}, nil
}

// ---- WriteMultipleCoils ----

type WriteMultipleCoilsRequest struct {
	StartingAddress uint16
	States          []bool
}

func NewWriteMultipleCoilsRequest(startingAddress uint16, states []bool) (*WriteMultipleCoilsRequest, error) {
	if len(states) < 1 || len(states) > 1968 {
		return nil, invalidArgument("states", "must contain between 1 and 1968 values")
	}
	if err := checkAddressRange("startingAddress", uint32(startingAddress), uint32(len(states))); err != nil {
		return nil, err
	}
	return &WriteMultipleCoilsRequest{StartingAddress: startingAddress, States: states}, nil
}

func (r *WriteMultipleCoilsRequest) FunctionCode() FunctionCode { return WriteMultipleCoils }

func (r *WriteMultipleCoilsRequest) Encode() []byte {
	packed := encodeBools(r.States)
	buf := make([]byte, 0, 6+len(packed))
	buf = append(buf, byte(WriteMultipleCoils))
	addrBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(addrBuf, r.StartingAddress)
	buf = append(buf, addrBuf...)
	qtyBuf := make([]byte, 2)
	binary.BigEndian.PutUint16(qtyBuf, uint16(len(r.States)))
	buf = append(buf, qtyBuf...)
	buf = append(buf, byte(len(packed)))
	buf = append(buf, packed...)
	return buf
}

func (r *WriteMultipleCoilsRequest) String() string {
	return fmt.Sprintf("WriteMultipleCoilsRequest{StartingAddress: %d, States: %v}", r.StartingAddress, r.States)
}

func decodeWriteMultipleCoilsRequest(payload []byte) (*WriteMultipleCoilsRequest, error) {
	c := newCursor(payload)
	addr, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	qty, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	if qty < 1 || qty > 1968 {
		return nil, invalidArgument("quantity", "must be in [1, 1968]")
	}
	n, err := c.byte()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	if int(n) != byteCount(int(qty)) {
		return nil, invalidFrame("byte count does not match quantity")
	}
	data, err := c.bytes(int(n))
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	states := decodeBools(int(qty), data)
	return NewWriteMultipleCoilsRequest(addr, states)
}

type WriteMultipleCoilsResponse struct {
	StartingAddress uint16
	Quantity        uint16
}

func NewWriteMultipleCoilsResponse(startingAddress, quantity uint16) (*WriteMultipleCoilsResponse, error) {
	if quantity < 1 || quantity > 1968 {
		return nil, invalidArgument("quantity", "must be in [1, 1968]")
	}
	return &WriteMultipleCoilsResponse{StartingAddress: startingAddress, Quantity: quantity}, nil
}

func (r *WriteMultipleCoilsResponse) FunctionCode() FunctionCode { return WriteMultipleCoils }

func (r *WriteMultipleCoilsResponse) Encode() []byte {
	buf := make([]byte, 5)
	buf[0] = byte(WriteMultipleCoils)
	binary.BigEndian.PutUint16(buf[1:], r.StartingAddress)
	binary.BigEndian.PutUint16(buf[3:], r.Quantity)
	return buf
}

func (r *WriteMultipleCoilsResponse) String() string {
	return fmt.Sprintf("WriteMultipleCoilsResponse{StartingAddress: %d, Quantity: %d}", r.StartingAddress, r.Quantity)
}

func decodeWriteMultipleCoilsResponse(payload []byte) (*WriteMultipleCoilsResponse, error) {
	c := newCursor(payload)
	addr, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	qty, err := c.uint16()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	return NewWriteMultipleCoilsResponse(addr, qty)
}
