package pdu

import "fmt"

const fileRecordReferenceType = 0x06

// FileRecordRequestItem is one sub-request of a ReadFileRecord or
// WriteFileRecord request.
type FileRecordRequestItem struct {
	FileNumber   uint16
	RecordNumber uint16
	// RecordLength is the sub-request's requested/declared length, in
	// 16-bit registers.
	RecordLength uint16
	// RecordData carries the registers to write; empty for ReadFileRecord
	// sub-requests.
	RecordData []byte
}

func checkFileRecordItem(fileNumber, recordNumber uint16) error {
	if fileNumber < 1 {
		return invalidArgument("fileNumber", "must be in [1, 0xFFFF]")
	}
	if recordNumber > 0x270F {
		return invalidArgument("recordNumber", "must be in [0, 0x270F]")
	}
	return nil
}

// ---- ReadFileRecord ----

type ReadFileRecordRequest struct {
	Items []FileRecordRequestItem
}

func NewReadFileRecordRequest(items []FileRecordRequestItem) (*ReadFileRecordRequest, error) {
	if len(items) < 1 {
		return nil, invalidArgument("items", "must contain at least one sub-request")
	}
	for _, it := range items {
		if err := checkFileRecordItem(it.FileNumber, it.RecordNumber); err != nil {
			return nil, err
		}
		if it.RecordLength < 1 || it.RecordLength > 120 {
			return nil, invalidArgument("recordLength", "must be in [1, 120]")
		}
	}
	return &ReadFileRecordRequest{Items: items}, nil
}

func (r *ReadFileRecordRequest) FunctionCode() FunctionCode { return ReadFileRecord }

func (r *ReadFileRecordRequest) Encode() []byte {
	buf := make([]byte, 2, 2+7*len(r.Items))
	buf[0] = byte(ReadFileRecord)
	for _, it := range r.Items {
		buf = append(buf, fileRecordReferenceType)
		buf = appendUint16(buf, it.FileNumber)
		buf = appendUint16(buf, it.RecordNumber)
		buf = appendUint16(buf, it.RecordLength)
	}
	buf[1] = byte(len(buf) - 2)
	return buf
}

func (r *ReadFileRecordRequest) String() string {
	return fmt.Sprintf("ReadFileRecordRequest{Items: %+v}", r.Items)
}

func appendUint16(buf []byte, v uint16) []byte {
	return append(buf, byte(v>>8), byte(v))
}

func decodeReadFileRecordRequest(payload []byte) (*ReadFileRecordRequest, error) {
	items, err := decodeFileRecordRequestItems(payload, false)
	if err != nil {
		return nil, err
	}
	return NewReadFileRecordRequest(items)
}

func decodeFileRecordRequestItems(payload []byte, withData bool) ([]FileRecordRequestItem, error) {
	c := newCursor(payload)
	n, err := c.byte()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	sub, err := c.bytes(int(n))
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	sc := newCursor(sub)
	var items []FileRecordRequestItem
	for !sc.atEnd() {
		refType, err := sc.byte()
		if err != nil {
			return nil, invalidFrame(err.Error())
		}
		if refType != fileRecordReferenceType {
			return nil, invalidFrame("invalid reference type")
		}
		fileNumber, err := sc.uint16()
		if err != nil {
			return nil, invalidFrame(err.Error())
		}
		recordNumber, err := sc.uint16()
		if err != nil {
			return nil, invalidFrame(err.Error())
		}
		recordLength, err := sc.uint16()
		if err != nil {
			return nil, invalidFrame(err.Error())
		}
		item := FileRecordRequestItem{FileNumber: fileNumber, RecordNumber: recordNumber, RecordLength: recordLength}
		if withData {
			data, err := sc.bytes(int(recordLength) * 2)
			if err != nil {
				return nil, invalidFrame(err.Error())
			}
			item.RecordData = data
		}
		items = append(items, item)
	}
	return items, nil
}

// FileRecordResponseItem is one sub-response of a ReadFileRecord response.
type FileRecordResponseItem struct {
	// Data is the even-length record-data buffer for this sub-response,
	// 2..240 bytes.
	Data []byte
}

type ReadFileRecordResponse struct {
	Items []FileRecordResponseItem
}

func NewReadFileRecordResponse(items []FileRecordResponseItem) (*ReadFileRecordResponse, error) {
	if len(items) < 1 {
		return nil, invalidArgument("items", "must contain at least one sub-response")
	}
	for _, it := range items {
		if err := checkRegisterData("data", it.Data, 2, 240); err != nil {
			return nil, err
		}
	}
	return &ReadFileRecordResponse{Items: items}, nil
}

func (r *ReadFileRecordResponse) FunctionCode() FunctionCode { return ReadFileRecord }

func (r *ReadFileRecordResponse) Encode() []byte {
	buf := make([]byte, 2)
	buf[0] = byte(ReadFileRecord)
	for _, it := range r.Items {
		buf = append(buf, byte(1+len(it.Data)), fileRecordReferenceType)
		buf = append(buf, it.Data...)
	}
	buf[1] = byte(len(buf) - 2)
	return buf
}

func (r *ReadFileRecordResponse) String() string {
	return fmt.Sprintf("ReadFileRecordResponse{Items: %+v}", r.Items)
}

func decodeReadFileRecordResponse(payload []byte) (*ReadFileRecordResponse, error) {
	c := newCursor(payload)
	n, err := c.byte()
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	sub, err := c.bytes(int(n))
	if err != nil {
		return nil, invalidFrame(err.Error())
	}
	sc := newCursor(sub)
	var items []FileRecordResponseItem
	for !sc.atEnd() {
		respLen, err := sc.byte()
		if err != nil {
			return nil, invalidFrame(err.Error())
		}
		refType, err := sc.byte()
		if err != nil {
			return nil, invalidFrame(err.Error())
		}
		if refType != fileRecordReferenceType {
			return nil, invalidFrame("invalid reference type")
		}
		data, err := sc.bytes(int(respLen) - 1)
		if err != nil {
			return nil, invalidFrame(err.Error())
		}
		items = append(items, FileRecordResponseItem{Data: data})
	}
	return NewReadFileRecordResponse(items)
}

// ---- WriteFileRecord ----

type WriteFileRecordRequest struct {
	Items []FileRecordRequestItem
}

func NewWriteFileRecordRequest(items []FileRecordRequestItem) (*WriteFileRecordRequest, error) {
	if len(items) < 1 {
		return nil, invalidArgument("items", "must contain at least one sub-request")
	}
	for _, it := range items {
		if err := checkFileRecordItem(it.FileNumber, it.RecordNumber); err != nil {
			return nil, err
		}
		if err := checkRegisterData("recordData", it.RecordData, 2, 240); err != nil {
			return nil, err
		}
		if int(it.RecordLength) != len(it.RecordData)/2 {
			return nil, invalidArgument("recordLength", "must match len(recordData)/2")
		}
	}
	return &WriteFileRecordRequest{Items: items}, nil
}

func (r *WriteFileRecordRequest) FunctionCode() FunctionCode { return WriteFileRecord }

func (r *WriteFileRecordRequest) Encode() []byte {
	buf := make([]byte, 2)
	buf[0] = byte(WriteFileRecord)
	for _, it := range r.Items {
		buf = append(buf, fileRecordReferenceType)
		buf = appendUint16(buf, it.FileNumber)
		buf = appendUint16(buf, it.RecordNumber)
		buf = appendUint16(buf, it.RecordLength)
		buf = append(buf, it.RecordData...)
	}
	buf[1] = byte(len(buf) - 2)
	return buf
}

func (r *WriteFileRecordRequest) String() string {
	return fmt.Sprintf("WriteFileRecordRequest{Items: %+v}", r.Items)
}

func decodeWriteFileRecordRequest(payload []byte) (*WriteFileRecordRequest, error) {
	items, err := decodeFileRecordRequestItems(payload, true)
	if err != nil {
		return nil, err
	}
	return NewWriteFileRecordRequest(items)
}

// WriteFileRecordResponse echoes the accepted sub-requests back verbatim.
type WriteFileRecordResponse struct {
	Items []FileRecordRequestItem
}

func NewWriteFileRecordResponse(items []FileRecordRequestItem) (*WriteFileRecordResponse, error) {
	if len(items) < 1 {
		return nil, invalidArgument("items", "must contain at least one sub-response")
	}
	return &WriteFileRecordResponse{Items: items}, nil
}

func (r *WriteFileRecordResponse) FunctionCode() FunctionCode { return WriteFileRecord }

func (r *WriteFileRecordResponse) Encode() []byte {
	buf := make([]byte, 2)
	buf[0] = byte(WriteFileRecord)
	for _, it := range r.Items {
		buf = append(buf, fileRecordReferenceType)
		buf = appendUint16(buf, it.FileNumber)
		buf = appendUint16(buf, it.RecordNumber)
		buf = appendUint16(buf, it.RecordLength)
		buf = append(buf, it.RecordData...)
	}
	buf[1] = byte(len(buf) - 2)
	return buf
}

func (r *WriteFileRecordResponse) String() string {
	return fmt.Sprintf("WriteFileRecordResponse{Items: %+v}", r.Items)
}

func decodeWriteFileRecordResponse(payload []byte) (*WriteFileRecordResponse, error) {
	items, err := decodeFileRecordRequestItems(payload, true)
	if err != nil {
		return nil, err
	}
	return NewWriteFileRecordResponse(items)
}
