package qdrant

import (
	"github.com/google/uuid"
	"github.com/poiesic/aisearch/core"
	pb "github.com/qdrant/go-client/qdrant"
)

// Payload keys.
const (
	keyDocumentID   = "document_id"
	keyTitle        = "title"
	keyCreators     = "creators"
	keyDescription  = "description"
	keyPublished    = "publication_date"
	keyResourceType = "resource_type"
	keyLicense      = "license"
	keyAccess       = "access_status"
	keyChunkIndex   = "chunk_index"
	keyChunkCount   = "chunk_count"
	keyText         = "text"
	keyWordCount    = "word_count"
	keyCharStart    = "char_start"
	keyCharEnd      = "char_end"
)

// pointNamespace derives stable point UUIDs from document and passage ids.
var pointNamespace = uuid.MustParse("6f1c1c9e-5b0a-4b1e-9a57-3d1d2a3e9c41")

func documentPointID(documentID string) string {
	return uuid.NewSHA1(pointNamespace, []byte("doc:"+documentID)).String()
}

func passagePointID(documentID string, chunkIndex int) string {
	return uuid.NewSHA1(pointNamespace, []byte("psg:"+core.PassageID(documentID, chunkIndex))).String()
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func intValue(i int) *pb.Value {
	return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(i)}}
}

func listValue(items []string) *pb.Value {
	values := make([]*pb.Value, len(items))
	for i, s := range items {
		values[i] = stringValue(s)
	}
	return &pb.Value{Kind: &pb.Value_ListValue{ListValue: &pb.ListValue{Values: values}}}
}

func documentPayload(doc *core.Document) map[string]*pb.Value {
	m := doc.Metadata
	return map[string]*pb.Value{
		keyDocumentID:   stringValue(doc.ID),
		keyTitle:        stringValue(m.Title),
		keyCreators:     listValue(m.Creators),
		keyDescription:  stringValue(m.Description),
		keyPublished:    stringValue(m.PublicationDate),
		keyResourceType: stringValue(m.ResourceType),
		keyLicense:      stringValue(m.License),
		keyAccess:       stringValue(m.AccessStatus),
	}
}

func passagePayload(p *core.Passage) map[string]*pb.Value {
	return map[string]*pb.Value{
		keyDocumentID: stringValue(p.DocumentID),
		keyChunkIndex: intValue(p.ChunkIndex),
		keyChunkCount: intValue(p.ChunkCount),
		keyText:       stringValue(p.Text),
		keyWordCount:  intValue(p.WordCount),
		keyCharStart:  intValue(p.CharStart),
		keyCharEnd:    intValue(p.CharEnd),
	}
}

func getString(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.GetKind().(*pb.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}

func getInt(payload map[string]*pb.Value, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch val := v.GetKind().(type) {
	case *pb.Value_IntegerValue:
		return int(val.IntegerValue)
	case *pb.Value_DoubleValue:
		return int(val.DoubleValue)
	}
	return 0
}

func getStrings(payload map[string]*pb.Value, key string) []string {
	v, ok := payload[key]
	if !ok {
		return nil
	}
	list, ok := v.GetKind().(*pb.Value_ListValue)
	if !ok || list.ListValue == nil {
		return nil
	}
	out := make([]string, 0, len(list.ListValue.Values))
	for _, item := range list.ListValue.Values {
		if s, ok := item.GetKind().(*pb.Value_StringValue); ok {
			out = append(out, s.StringValue)
		}
	}
	return out
}

func metadataFromPayload(payload map[string]*pb.Value) *core.Metadata {
	return &core.Metadata{
		Title:           getString(payload, keyTitle),
		Creators:        getStrings(payload, keyCreators),
		Description:     getString(payload, keyDescription),
		PublicationDate: getString(payload, keyPublished),
		ResourceType:    getString(payload, keyResourceType),
		License:         getString(payload, keyLicense),
		AccessStatus:    getString(payload, keyAccess),
	}
}

func passageFromPayload(payload map[string]*pb.Value) *core.Passage {
	return &core.Passage{
		DocumentID: getString(payload, keyDocumentID),
		ChunkIndex: getInt(payload, keyChunkIndex),
		ChunkCount: getInt(payload, keyChunkCount),
		Text:       getString(payload, keyText),
		WordCount:  getInt(payload, keyWordCount),
		CharStart:  getInt(payload, keyCharStart),
		CharEnd:    getInt(payload, keyCharEnd),
	}
}

func documentFilter(documentID string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: keyDocumentID,
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{Keyword: documentID},
						},
					},
				},
			},
		},
	}
}
